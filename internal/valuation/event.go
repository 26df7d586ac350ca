package valuation

import (
	"context"
	"fmt"
	"math/big"

	"poolNotifier/internal/model"
)

// DigitsToShow is the display precision used for each event kind.
func DigitsToShow(kind model.EventKind) int {
	switch kind {
	case model.EventSwap, model.EventRemoveLiquidityImbalance:
		return 4
	default:
		return 3
	}
}

// Value computes the ValuationResult of ev against its pool.
func (e *Engine) Value(ctx context.Context, ev model.RawEvent, pool model.PoolConfig) (model.ValuationResult, error) {
	digits := DigitsToShow(ev.Kind)

	switch ev.Kind {
	case model.EventSwap:
		if len(ev.Amounts) != 2 || len(ev.TokenIndices) != 2 {
			return model.ValuationResult{}, fmt.Errorf("swap expects 2 amounts and 2 token indices, got %d/%d", len(ev.Amounts), len(ev.TokenIndices))
		}
		sold, err := tokenAmount(pool, ev.TokenIndices[0], ev.Amounts[0])
		if err != nil {
			return model.ValuationResult{}, err
		}
		bought, err := tokenAmount(pool, ev.TokenIndices[1], ev.Amounts[1])
		if err != nil {
			return model.ValuationResult{}, err
		}
		swap, err := e.ValueSwap(ctx, sold, bought, digits)
		if err != nil {
			return model.ValuationResult{}, err
		}
		return model.ValuationResult{
			Tokens:       []model.TokenValue{swap.Sold, swap.Bought},
			TotalUSD:     swap.Sold.USD,
			ExchangeRate: swap.ExchangeRate,
			Anomaly:      swap.Anomaly,
			Digits:       digits,
		}, nil

	case model.EventRemoveLiquidityOne:
		if len(ev.Amounts) != 1 || len(ev.TokenIndices) != 1 {
			return model.ValuationResult{}, fmt.Errorf("%s expects 1 amount and 1 token index, got %d/%d", ev.Kind, len(ev.Amounts), len(ev.TokenIndices))
		}
		amt, err := tokenAmount(pool, ev.TokenIndices[0], ev.Amounts[0])
		if err != nil {
			return model.ValuationResult{}, err
		}
		value, err := e.ValueOne(ctx, amt, digits)
		if err != nil {
			return model.ValuationResult{}, err
		}
		return model.ValuationResult{Tokens: []model.TokenValue{value}, TotalUSD: value.USD, Digits: digits}, nil

	case model.EventAddLiquidity, model.EventRemoveLiquidity, model.EventRemoveLiquidityImbalance:
		if len(ev.Amounts) == 0 {
			return model.ValuationResult{}, fmt.Errorf("%s has no amounts", ev.Kind)
		}
		amts := make([]TokenAmount, 0, len(ev.Amounts))
		for i, raw := range ev.Amounts {
			index := i
			if i < len(ev.TokenIndices) {
				index = ev.TokenIndices[i]
			}
			amt, err := tokenAmount(pool, index, raw)
			if err != nil {
				return model.ValuationResult{}, err
			}
			amts = append(amts, amt)
		}
		values, total, err := e.ValueMany(ctx, amts, digits)
		if err != nil {
			return model.ValuationResult{}, err
		}
		return model.ValuationResult{Tokens: values, TotalUSD: total, Digits: digits}, nil

	default:
		return model.ValuationResult{}, fmt.Errorf("unsupported event kind: %s", ev.Kind)
	}
}

func tokenAmount(pool model.PoolConfig, index int, raw *big.Int) (TokenAmount, error) {
	meta, ok := pool.Token(index)
	if !ok {
		return TokenAmount{}, fmt.Errorf("%w: pool %s has %d tokens, index %d", ErrTokenIndex, pool.Name, len(pool.Tokens), index)
	}
	return TokenAmount{
		Symbol:   meta.Symbol,
		Raw:      raw,
		Decimals: meta.Decimals,
		PriceID:  meta.PriceID,
	}, nil
}
