package model

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"
)

func TestRawEventJSONStringAmounts(t *testing.T) {
	big1, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	event := RawEvent{
		Kind:         EventSwap,
		Pool:         "0x1111111111111111111111111111111111111111",
		Actor:        "0x2222222222222222222222222222222222222222",
		Amounts:      []*big.Int{big1, big.NewInt(42)},
		TokenIndices: []int{0, 1},
		TxHash:       "0xdef456",
		BlockNumber:  36000000,
		LogIndex:     12,
		Timestamp:    1700000000,
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	amounts, ok := generic["amounts"].([]interface{})
	if !ok || len(amounts) != 2 {
		t.Fatalf("amounts should be a list of 2, got %v", generic["amounts"])
	}
	if amounts[0] != "123456789012345678901234567890" {
		t.Fatalf("amount0 should be a decimal string, got %v", amounts[0])
	}
	if generic["event"] != "TokenSwap" {
		t.Fatalf("event name mismatch: %v", generic["event"])
	}

	var decoded RawEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(event, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", event, decoded)
	}
}

func TestParseEventKind(t *testing.T) {
	cases := map[string]EventKind{
		"swap":                     EventSwap,
		"TokenSwap":                EventSwap,
		"addLiquidity":             EventAddLiquidity,
		"RemoveLiquidity":          EventRemoveLiquidity,
		"removeliquidityone":       EventRemoveLiquidityOne,
		"RemoveLiquidityImbalance": EventRemoveLiquidityImbalance,
	}
	for input, want := range cases {
		got, err := ParseEventKind(input)
		if err != nil {
			t.Fatalf("parse %s: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %s: got %s want %s", input, got, want)
		}
	}
	if _, err := ParseEventKind("Mint"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if EventSwap.IsWithdraw() || EventAddLiquidity.IsWithdraw() || !EventRemoveLiquidityOne.IsWithdraw() {
		t.Fatalf("withdraw classification mismatch")
	}
}
