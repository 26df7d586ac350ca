package watcher

import (
	"context"
	"time"

	"poolNotifier/internal/backoff"
)

// withRetry runs fn once plus up to maxRetries retries with doubling delays.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	retrier := backoff.New(
		backoff.WithMaxAttempts(maxRetries+1),
		backoff.WithInitialInterval(baseDelay),
	)
	_, err := retrier.Do(ctx, fn)
	return err
}
