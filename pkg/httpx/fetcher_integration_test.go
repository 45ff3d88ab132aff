package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdssp/pds-crawler/pkg/models"
)

func TestFetcherRetriesOnRetryableStatus(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(2*time.Second, 5)
	body, err := f.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.GreaterOrEqual(t, calls, 3)
}

func TestFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(2*time.Second, 5)
	_, err := f.Get(context.Background(), server.URL)
	require.Error(t, err)
	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, calls)
}

func TestFetcherFollowsMetaRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/end"></head></html>`))
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("final"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(2*time.Second, 2)
	body, err := f.Get(context.Background(), server.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "final", string(body))
}
