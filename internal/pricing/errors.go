package pricing

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is returned when the price service rejects the request with 403.
	ErrUnauthorized = errors.New("price service: unauthorized")
	// ErrPriceFetchExhausted is matched when every attempt failed.
	ErrPriceFetchExhausted = errors.New("price service: retry budget exhausted")
	// ErrMissingPriceQuote is matched when a requested id is absent from the response.
	ErrMissingPriceQuote = errors.New("price service: missing price quote")
)

// ExhaustedError carries the attempt count and the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrPriceFetchExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrPriceFetchExhausted }

func (e *ExhaustedError) Unwrap() error { return e.Err }

// MissingPriceQuoteError names the id the response did not contain.
type MissingPriceQuoteError struct {
	ID string
}

func (e *MissingPriceQuoteError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingPriceQuote, e.ID)
}

func (e *MissingPriceQuoteError) Is(target error) bool { return target == ErrMissingPriceQuote }
