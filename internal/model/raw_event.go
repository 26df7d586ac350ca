package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// EventKind names a pool event.
type EventKind string

const (
	EventSwap                     EventKind = "TokenSwap"
	EventAddLiquidity             EventKind = "AddLiquidity"
	EventRemoveLiquidity          EventKind = "RemoveLiquidity"
	EventRemoveLiquidityOne       EventKind = "RemoveLiquidityOne"
	EventRemoveLiquidityImbalance EventKind = "RemoveLiquidityImbalance"
)

// ParseEventKind maps a case-insensitive name to an EventKind.
func ParseEventKind(name string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tokenswap", "swap":
		return EventSwap, nil
	case "addliquidity":
		return EventAddLiquidity, nil
	case "removeliquidity":
		return EventRemoveLiquidity, nil
	case "removeliquidityone":
		return EventRemoveLiquidityOne, nil
	case "removeliquidityimbalance":
		return EventRemoveLiquidityImbalance, nil
	default:
		return "", fmt.Errorf("unknown event kind: %s", name)
	}
}

// IsWithdraw reports whether the kind removes liquidity.
func (k EventKind) IsWithdraw() bool {
	return k == EventRemoveLiquidity || k == EventRemoveLiquidityOne || k == EventRemoveLiquidityImbalance
}

// RawEvent is a decoded pool log. Amounts and TokenIndices are positional:
//
//	TokenSwap:          [sold, bought] / [soldID, boughtID]
//	RemoveLiquidityOne: [tokensBought] / [boughtID]
//	others:             one amount per pool token, indices 0..n-1
type RawEvent struct {
	Kind         EventKind
	Pool         string
	Actor        string
	Amounts      []*big.Int
	TokenIndices []int
	TxHash       string
	BlockNumber  uint64
	LogIndex     uint64
	Timestamp    uint64
}

type rawEventJSON struct {
	Kind         EventKind `json:"event"`
	Pool         string    `json:"pool"`
	Actor        string    `json:"actor"`
	Amounts      []string  `json:"amounts"`
	TokenIndices []int     `json:"token_indices"`
	TxHash       string    `json:"tx_hash"`
	BlockNumber  uint64    `json:"block_number"`
	LogIndex     uint64    `json:"log_index"`
	Timestamp    uint64    `json:"timestamp"`
}

// MarshalJSON encodes amounts as decimal strings.
func (e RawEvent) MarshalJSON() ([]byte, error) {
	amounts := make([]string, 0, len(e.Amounts))
	for _, amt := range e.Amounts {
		if amt == nil {
			amounts = append(amounts, "0")
			continue
		}
		amounts = append(amounts, amt.String())
	}
	return json.Marshal(rawEventJSON{
		Kind:         e.Kind,
		Pool:         e.Pool,
		Actor:        e.Actor,
		Amounts:      amounts,
		TokenIndices: e.TokenIndices,
		TxHash:       e.TxHash,
		BlockNumber:  e.BlockNumber,
		LogIndex:     e.LogIndex,
		Timestamp:    e.Timestamp,
	})
}

// UnmarshalJSON decodes a RawEvent from its JSON form.
func (e *RawEvent) UnmarshalJSON(data []byte) error {
	var a rawEventJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	amounts := make([]*big.Int, 0, len(a.Amounts))
	for _, s := range a.Amounts {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("invalid amount: %s", s)
		}
		amounts = append(amounts, v)
	}
	*e = RawEvent{
		Kind:         a.Kind,
		Pool:         a.Pool,
		Actor:        a.Actor,
		Amounts:      amounts,
		TokenIndices: a.TokenIndices,
		TxHash:       a.TxHash,
		BlockNumber:  a.BlockNumber,
		LogIndex:     a.LogIndex,
		Timestamp:    a.Timestamp,
	}
	return nil
}
