// Package feed retrieves, parses, and converts the upstream EPG feed.
// The fetcher and parser deal only in transport and structure; all domain
// validation happens in the converter.
package feed

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/telemat/epgsync/internal/config"
	"github.com/telemat/epgsync/internal/logger"
)

// Backoff schedule bounds for fetch retries
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second
)

// Fetcher retrieves the raw feed over HTTP with a bounded timeout and
// optional gzip decompression.
type Fetcher struct {
	url        string
	compressed bool
	client     *http.Client

	// sleep is replaceable in tests to verify the backoff schedule
	sleep func(time.Duration)
}

// NewFetcher creates a fetcher for the configured feed source.
func NewFetcher(cfg *config.FeedConfig) *Fetcher {
	return &Fetcher{
		url:        cfg.URL,
		compressed: cfg.Compressed,
		client:     &http.Client{Timeout: cfg.Timeout},
		sleep:      time.Sleep,
	}
}

// FetchRaw performs a single timed GET and returns the raw response bytes.
func (f *Fetcher) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	return data, nil
}

// Fetch retrieves the feed and streams it through gzip decompression when
// the source is configured as compressed.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	raw, err := f.FetchRaw(ctx)
	if err != nil {
		return "", err
	}

	if !f.compressed {
		return string(raw), nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", &FetchError{URL: f.url, Err: fmt.Errorf("gzip: %w", err)}
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: f.url, Err: fmt.Errorf("gzip: %w", err)}
	}
	return string(decompressed), nil
}

// FetchWithRetry calls Fetch with exponential backoff between attempts:
// 1s, 2s, 4s... capped at 10s. The last error propagates once attempts
// are exhausted. Attempt counts below 1 are treated as 1.
func (f *Fetcher) FetchWithRetry(ctx context.Context, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := f.Fetch(ctx)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			delay := backoffDelay(attempt)
			logger.Log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Dur("backoff", delay).
				Msg("Feed fetch failed, retrying")
			f.sleep(delay)
		}
	}

	logger.Log.Error().
		Err(lastErr).
		Int("max_attempts", maxAttempts).
		Msg("Feed fetch failed after all attempts")
	return "", lastErr
}

// backoffDelay returns min(1s * 2^(attempt-1), 10s).
func backoffDelay(attempt int) time.Duration {
	delay := initialBackoff
	for i := 1; i < attempt && delay < maxBackoff; i++ {
		delay *= 2
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
