package model

// TokenMeta is the per-index view of a pool token.
type TokenMeta struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	PriceID  string `json:"price_id"`
}
