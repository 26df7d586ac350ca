package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	attempts, err := New(WithMaxAttempts(5), WithInitialInterval(time.Millisecond)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDoExhausts(t *testing.T) {
	calls := 0
	attempts, err := New(WithMaxAttempts(4), WithInitialInterval(time.Millisecond)).Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, calls)
}

func TestDoStopConditionEndsEarly(t *testing.T) {
	errFatal := errors.New("fatal")
	calls := 0
	retrier := New(
		WithMaxAttempts(5),
		WithInitialInterval(time.Millisecond),
		WithStop(func(err error) bool { return errors.Is(err, errFatal) }),
	)
	attempts, err := retrier.Do(context.Background(), func(context.Context) error {
		calls++
		return errFatal
	})

	assert.Same(t, errFatal, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempts, err := New(WithMaxAttempts(5), WithInitialInterval(time.Second)).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestNewClampsAttempts(t *testing.T) {
	calls := 0
	attempts, err := New(WithMaxAttempts(0)).Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}
