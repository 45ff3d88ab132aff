package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesKnownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", &buf)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewFallsBackToInfoOnUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("not-a-level", &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewWritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
