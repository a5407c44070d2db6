package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// FetchOptions tunes FetchBytes.
type FetchOptions struct {
	Headers         map[string]string
	MaxBytes        int64         // default 4 MiB
	InitialInterval time.Duration // default 1s
	MaxTries        uint          // default 3
}

// FetchBytes performs a GET with exponential backoff on retryable statuses.
// Transport errors and other non-200 statuses are permanent and come back as
// *StatusError when a status was received.
func FetchBytes(ctx context.Context, client *http.Client, fetchURL string, opts FetchOptions) ([]byte, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 4 * 1024 * 1024
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if IsRetryableStatus(resp.StatusCode) {
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return data, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.InitialInterval
	bo.MaxInterval = 10 * opts.InitialInterval

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(opts.MaxTries), backoff.WithMaxElapsedTime(30*time.Second))
}
