package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRefreshContent(t *testing.T) {
	cases := []struct {
		content string
		want    string
		ok      bool
	}{
		{`0;url=https://example.org/next`, "https://example.org/next", true},
		{`0; URL="https://example.org/next"`, "https://example.org/next", true},
		{`5`, "", false},
		{`not-a-number;url=https://example.org`, "", false},
		{`0;path=https://example.org`, "", false},
	}
	for _, c := range cases {
		got, ok := parseRefreshContent(c.content)
		assert.Equal(t, c.ok, ok, c.content)
		assert.Equal(t, c.want, got, c.content)
	}
}

func TestMetaRefreshTarget(t *testing.T) {
	html := []byte(`<html><head><meta http-equiv="refresh" content="0;url=/other.html"></head></html>`)
	target, ok := metaRefreshTarget(html)
	assert.True(t, ok)
	assert.Equal(t, "/other.html", target)
}

func TestMetaRefreshTargetAbsent(t *testing.T) {
	html := []byte(`<html><body>no refresh here</body></html>`)
	_, ok := metaRefreshTarget(html)
	assert.False(t, ok)
}
