// Package amount converts raw on-chain token quantities into display strings.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrecision is matched by every InvalidPrecisionError.
var ErrInvalidPrecision = errors.New("invalid precision")

// InvalidPrecisionError reports a violated decimals/digitsToShow/amount precondition.
type InvalidPrecisionError struct {
	Decimals     int
	DigitsToShow int
	Reason       string
}

func (e *InvalidPrecisionError) Error() string {
	return fmt.Sprintf("invalid precision (decimals=%d, digits=%d): %s", e.Decimals, e.DigitsToShow, e.Reason)
}

func (e *InvalidPrecisionError) Is(target error) bool {
	return target == ErrInvalidPrecision
}

var ten = big.NewInt(10)

// ToHumanString renders raw / 10^decimals truncated to digitsToShow fractional digits.
// A zero amount renders as "0".
func ToHumanString(raw *big.Int, decimals, digitsToShow int) (string, error) {
	if digitsToShow < 0 || decimals < digitsToShow {
		return "", &InvalidPrecisionError{Decimals: decimals, DigitsToShow: digitsToShow, Reason: "requires decimals >= digits >= 0"}
	}
	if raw == nil {
		return "", &InvalidPrecisionError{Decimals: decimals, DigitsToShow: digitsToShow, Reason: "amount is nil"}
	}
	if raw.Sign() < 0 {
		return "", &InvalidPrecisionError{Decimals: decimals, DigitsToShow: digitsToShow, Reason: "amount is negative"}
	}
	if raw.Sign() == 0 {
		return "0", nil
	}

	divisor := new(big.Int).Exp(ten, big.NewInt(int64(decimals-digitsToShow)), nil)
	digits := new(big.Int).Quo(raw, divisor).String()
	if digitsToShow == 0 {
		return digits, nil
	}
	if pad := digitsToShow + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	split := len(digits) - digitsToShow
	return digits[:split] + "." + digits[split:], nil
}

// ToDecimal parses a string produced by ToHumanString.
func ToDecimal(human string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", human, err)
	}
	return d, nil
}
