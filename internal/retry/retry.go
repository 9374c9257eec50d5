// Package retry is the one retry-with-backoff utility used across the
// pipeline for flaky external calls.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do runs fn up to maxAttempts times with exponential backoff starting at
// baseDelay. It returns the last error when all attempts fail, and stops
// early when ctx is cancelled.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.RandomizationFactor = 0.2

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx)
	return backoff.Retry(fn, policy)
}
