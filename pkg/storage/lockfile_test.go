package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	lock, err := AcquireLock(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireLockTimesOutWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	first, err := AcquireLock(path, time.Second)
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquireLock(path, 300*time.Millisecond)
	assert.Error(t, err)
}
