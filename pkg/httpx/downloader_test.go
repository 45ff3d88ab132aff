package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderSkipsExistingFiles(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(existing, []byte("cached"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	fetcher := NewFetcher(5*time.Second, 1)
	downloader := NewDownloader(fetcher, 2)

	err := downloader.Download(context.Background(), []DownloadJob{
		{URL: server.URL, Path: existing},
		{URL: server.URL, Path: missing},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	body, err := os.ReadFile(missing)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))

	cached, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(cached))
}
