package model

import "github.com/shopspring/decimal"

// PriceQuote maps price-provider ids to USD prices. Valid for one valuation only.
type PriceQuote map[string]decimal.Decimal

// TokenValue is one valued token amount.
type TokenValue struct {
	Symbol string
	Amount string
	USD    decimal.Decimal
}

// ValuationResult is the financial summary of one RawEvent. Digits is the
// precision amounts were truncated to and USD values were rounded to.
type ValuationResult struct {
	Tokens       []TokenValue
	TotalUSD     decimal.Decimal
	ExchangeRate decimal.Decimal
	Anomaly      bool
	Digits       int
}
