// Package backoff retries an operation with doubling delays.
package backoff

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultMaxAttempts     = 5
	defaultInitialInterval = 100 * time.Millisecond
)

// ExhaustedError is returned when every attempt failed. Err is the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retrier runs an operation until it succeeds, a stop condition matches, the
// attempts are used up, or the context ends.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	stop            func(error) bool
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts sets the total number of attempts. Values below one mean one.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		r.maxAttempts = n
	}
}

// WithInitialInterval sets the delay before the second attempt. Each later
// delay doubles. Non-positive values keep the default.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.initialInterval = d
		}
	}
}

// WithStop makes errors matching fn final: Do returns them without retrying.
func WithStop(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.stop = fn
	}
}

func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}
	return r
}

// Do runs fn and reports how many attempts were made. A stopped error is
// returned as is, exhaustion as *ExhaustedError, and cancellation during a
// wait as ctx.Err().
func (r *Retrier) Do(ctx context.Context, fn func(context.Context) error) (int, error) {
	delay := r.initialInterval
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if r.stop != nil && r.stop(err) {
			return attempt, err
		}
		if attempt >= r.maxAttempts {
			return attempt, &ExhaustedError{Attempts: attempt, Err: err}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
