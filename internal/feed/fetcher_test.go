package feed

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telemat/epgsync/internal/config"
)

func newTestFetcher(url string, compressed bool) *Fetcher {
	f := NewFetcher(&config.FeedConfig{
		URL:        url,
		Timeout:    5 * time.Second,
		Compressed: compressed,
	})
	f.sleep = func(time.Duration) {}
	return f
}

func TestFetchRaw_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<tv></tv>"))
	}))
	defer server.Close()

	data, err := newTestFetcher(server.URL, false).FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<tv></tv>", string(data))
}

func TestFetchRaw_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL, false).FetchRaw(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}

func TestFetchRaw_ConnectionRefused(t *testing.T) {
	_, err := newTestFetcher("http://127.0.0.1:1/feed.xml", false).FetchRaw(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}

func TestFetch_Gzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<tv><channel id=\"x\"/></tv>"))
		_ = gz.Close()
	}))
	defer server.Close()

	content, err := newTestFetcher(server.URL, true).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<tv><channel id=\"x\"/></tv>", content)
}

func TestFetch_GzipCorrupt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not gzip"))
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL, true).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}

func TestFetch_Uncompressed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain"))
	}))
	defer server.Close()

	content, err := newTestFetcher(server.URL, false).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", content)
}

func TestFetchWithRetry_SucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(&config.FeedConfig{URL: server.URL, Timeout: 5 * time.Second})
	var delays []time.Duration
	f.sleep = func(d time.Duration) { delays = append(delays, d) }

	content, err := f.FetchWithRetry(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, int32(3), calls.Load())
	// Two failures mean two backoff sleeps on the 1s*2^(n-1) schedule.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestFetchWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, false)
	_, err := f.FetchWithRetry(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchWithRetry_ClampsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := newTestFetcher(server.URL, false).FetchWithRetry(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, 8*time.Second, backoffDelay(4))
	// Capped at 10s from the fifth attempt on.
	assert.Equal(t, 10*time.Second, backoffDelay(5))
	assert.Equal(t, 10*time.Second, backoffDelay(9))
}
