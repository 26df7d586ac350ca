// Package valuation turns raw pool event amounts into display amounts and USD values.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolNotifier/internal/amount"
	"poolNotifier/internal/model"
	"poolNotifier/internal/pricing"
)

// AnomalyThreshold is the exchange rate at or below which a swap is flagged.
var AnomalyThreshold = decimal.RequireFromString("0.97")

// ErrTokenIndex is returned when an event references a token the pool does not have.
var ErrTokenIndex = errors.New("token index out of range")

// PriceSource provides USD quotes for price-provider ids.
type PriceSource interface {
	FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error)
}

// TokenAmount is one raw amount with the metadata needed to value it.
type TokenAmount struct {
	Symbol   string
	Raw      *big.Int
	Decimals int
	PriceID  string
}

// SwapValuation is the result of valuing both sides of a swap.
type SwapValuation struct {
	Sold         model.TokenValue
	Bought       model.TokenValue
	ExchangeRate decimal.Decimal
	Anomaly      bool
}

// Engine values token amounts. It holds no per-event state.
type Engine struct {
	prices PriceSource
	logger *zap.Logger
}

func NewEngine(prices PriceSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{prices: prices, logger: logger}
}

// ValueOne values a single token amount.
func (e *Engine) ValueOne(ctx context.Context, amt TokenAmount, digits int) (model.TokenValue, error) {
	values, _, err := e.ValueMany(ctx, []TokenAmount{amt}, digits)
	if err != nil {
		return model.TokenValue{}, err
	}
	return values[0], nil
}

// ValueMany values every amount with one price fetch. Each USD value is
// rounded to digits places and the total is the sum of the rounded values.
func (e *Engine) ValueMany(ctx context.Context, amts []TokenAmount, digits int) ([]model.TokenValue, decimal.Decimal, error) {
	humans := make([]string, len(amts))
	ids := make([]string, 0, len(amts))
	for i, amt := range amts {
		human, err := amount.ToHumanString(amt.Raw, amt.Decimals, digits)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("%s amount: %w", amt.Symbol, err)
		}
		humans[i] = human
		ids = append(ids, amt.PriceID)
	}

	quote, err := e.prices.FetchPrices(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("fetch prices: %w", err)
	}

	values := make([]model.TokenValue, 0, len(amts))
	total := decimal.Zero
	for i, amt := range amts {
		value, err := tokenValue(amt, humans[i], quote, digits)
		if err != nil {
			return nil, decimal.Zero, err
		}
		total = total.Add(value.USD)
		values = append(values, value)
	}
	return values, total, nil
}

// ValueSwap values both sides of a swap with one price fetch and derives the
// implied exchange rate bought/sold from the display amounts.
func (e *Engine) ValueSwap(ctx context.Context, sold, bought TokenAmount, digits int) (SwapValuation, error) {
	values, _, err := e.ValueMany(ctx, []TokenAmount{sold, bought}, digits)
	if err != nil {
		return SwapValuation{}, err
	}

	result := SwapValuation{Sold: values[0], Bought: values[1]}
	soldAmount, err := amount.ToDecimal(result.Sold.Amount)
	if err != nil {
		return SwapValuation{}, err
	}
	boughtAmount, err := amount.ToDecimal(result.Bought.Amount)
	if err != nil {
		return SwapValuation{}, err
	}

	if soldAmount.IsZero() {
		e.logger.Warn("swap with zero sold amount, exchange rate undefined",
			zap.String("sold", sold.Symbol), zap.String("bought", bought.Symbol))
		return result, nil
	}
	result.ExchangeRate = boughtAmount.Div(soldAmount)
	result.Anomaly = IsAnomalous(result.ExchangeRate)
	return result, nil
}

// IsAnomalous reports whether rate is at or below AnomalyThreshold.
func IsAnomalous(rate decimal.Decimal) bool {
	return rate.LessThanOrEqual(AnomalyThreshold)
}

func tokenValue(amt TokenAmount, human string, quote model.PriceQuote, digits int) (model.TokenValue, error) {
	price, ok := quote[amt.PriceID]
	if !ok {
		return model.TokenValue{}, &pricing.MissingPriceQuoteError{ID: amt.PriceID}
	}
	units, err := amount.ToDecimal(human)
	if err != nil {
		return model.TokenValue{}, err
	}
	return model.TokenValue{
		Symbol: amt.Symbol,
		Amount: human,
		USD:    units.Mul(price).Round(int32(digits)),
	}, nil
}
