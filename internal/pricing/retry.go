package pricing

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"poolNotifier/internal/backoff"
)

// withRetry runs fn up to maxAttempts times with doubling backoff. It stops
// early on ErrUnauthorized or when ctx is done, and reports the number of
// attempts made.
func withRetry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func(context.Context) error) (int, error) {
	retrier := backoff.New(
		backoff.WithMaxAttempts(maxAttempts),
		backoff.WithInitialInterval(baseDelay),
		backoff.WithStop(func(err error) bool { return errors.Is(err, ErrUnauthorized) }),
	)
	attempts, err := retrier.Do(ctx, fn)

	var exhausted *backoff.ExhaustedError
	if errors.As(err, &exhausted) {
		return attempts, &ExhaustedError{Attempts: exhausted.Attempts, Err: exhausted.Err}
	}
	return attempts, err
}
