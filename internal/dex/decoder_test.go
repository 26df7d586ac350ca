package dex

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolNotifier/internal/model"
)

var (
	testPool     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testProvider = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testTxHash   = common.HexToHash("0xdef0")
)

func buildLog(t *testing.T, name string, args ...interface{}) types.Log {
	t.Helper()
	poolABI, err := StableSwapABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := poolABI.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", name, err)
	}
	return types.Log{
		Address:     testPool,
		Topics:      []common.Hash{event.ID, topicFromAddress(testProvider)},
		Data:        data,
		BlockNumber: 12345,
		TxHash:      testTxHash,
		Index:       3,
	}
}

func newTestDecoder(t *testing.T) *StableSwapDecoder {
	t.Helper()
	decoder, err := NewStableSwapDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	return decoder
}

func amounts(values ...int64) []*big.Int {
	out := make([]*big.Int, 0, len(values))
	for _, v := range values {
		out = append(out, big.NewInt(v))
	}
	return out
}

func TestStableSwapDecoderTokenSwap(t *testing.T) {
	decoder := newTestDecoder(t)
	log := buildLog(t, "TokenSwap", big.NewInt(100000000), big.NewInt(99000000), big.NewInt(1), big.NewInt(2))

	ev, err := decoder.Decode(log, 1700000000)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	if ev.Kind != model.EventSwap {
		t.Fatalf("kind mismatch: %s", ev.Kind)
	}
	if !reflect.DeepEqual(ev.Amounts, amounts(100000000, 99000000)) {
		t.Fatalf("amounts mismatch: %v", ev.Amounts)
	}
	if !reflect.DeepEqual(ev.TokenIndices, []int{1, 2}) {
		t.Fatalf("indices mismatch: %v", ev.TokenIndices)
	}
	if ev.Actor != testProvider.Hex() || ev.Pool != testPool.Hex() {
		t.Fatalf("address mismatch: %+v", ev)
	}
	if ev.TxHash != testTxHash.Hex() || ev.BlockNumber != 12345 || ev.LogIndex != 3 || ev.Timestamp != 1700000000 {
		t.Fatalf("position mismatch: %+v", ev)
	}
}

func TestStableSwapDecoderLiquidityEvents(t *testing.T) {
	decoder := newTestDecoder(t)

	cases := []struct {
		name string
		kind model.EventKind
		log  types.Log
	}{
		{
			name: "AddLiquidity",
			kind: model.EventAddLiquidity,
			log:  buildLog(t, "AddLiquidity", amounts(10, 20, 30), amounts(1, 1, 1), big.NewInt(99), big.NewInt(1000)),
		},
		{
			name: "RemoveLiquidity",
			kind: model.EventRemoveLiquidity,
			log:  buildLog(t, "RemoveLiquidity", amounts(10, 20, 30), big.NewInt(1000)),
		},
		{
			name: "RemoveLiquidityImbalance",
			kind: model.EventRemoveLiquidityImbalance,
			log:  buildLog(t, "RemoveLiquidityImbalance", amounts(10, 20, 30), amounts(0, 0, 0), big.NewInt(99), big.NewInt(1000)),
		},
	}

	for _, tc := range cases {
		ev, err := decoder.Decode(tc.log, 0)
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if ev.Kind != tc.kind {
			t.Fatalf("%s: kind mismatch: %s", tc.name, ev.Kind)
		}
		if !reflect.DeepEqual(ev.Amounts, amounts(10, 20, 30)) {
			t.Fatalf("%s: amounts mismatch: %v", tc.name, ev.Amounts)
		}
		if !reflect.DeepEqual(ev.TokenIndices, []int{0, 1, 2}) {
			t.Fatalf("%s: indices mismatch: %v", tc.name, ev.TokenIndices)
		}
	}
}

func TestStableSwapDecoderRemoveLiquidityOne(t *testing.T) {
	decoder := newTestDecoder(t)
	log := buildLog(t, "RemoveLiquidityOne", big.NewInt(500), big.NewInt(10000), big.NewInt(2), big.NewInt(1234567))

	ev, err := decoder.Decode(log, 0)
	if err != nil {
		t.Fatalf("decode remove one: %v", err)
	}
	if !reflect.DeepEqual(ev.Amounts, amounts(1234567)) {
		t.Fatalf("amounts mismatch: %v", ev.Amounts)
	}
	if !reflect.DeepEqual(ev.TokenIndices, []int{2}) {
		t.Fatalf("indices mismatch: %v", ev.TokenIndices)
	}
}

func TestStableSwapDecoderErrors(t *testing.T) {
	decoder := newTestDecoder(t)

	unknown := types.Log{Topics: []common.Hash{common.HexToHash("0x01")}, TxHash: testTxHash}
	_, err := decoder.Decode(unknown, 0)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}

	truncated := buildLog(t, "TokenSwap", big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(1))
	truncated.Data = truncated.Data[:64]
	if _, err := decoder.Decode(truncated, 0); err == nil {
		t.Fatalf("expected error for truncated data")
	}

	missingTopic := buildLog(t, "TokenSwap", big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(1))
	missingTopic.Topics = missingTopic.Topics[:1]
	if _, err := decoder.Decode(missingTopic, 0); err == nil {
		t.Fatalf("expected error for missing indexed topic")
	}

	badIndex := buildLog(t, "TokenSwap", big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(300))
	if _, err := decoder.Decode(badIndex, 0); err == nil {
		t.Fatalf("expected error for token index overflow")
	}
}

func TestStableSwapDecoderTopics(t *testing.T) {
	decoder := newTestDecoder(t)
	topics := decoder.Topics()
	if len(topics) != 5 {
		t.Fatalf("expected 5 topics, got %d", len(topics))
	}
	for _, topic := range topics {
		if !decoder.CanDecode(topic) {
			t.Fatalf("topic not decodable: %s", topic.Hex())
		}
	}
	if decoder.CanDecode(common.HexToHash("0x01")) {
		t.Fatalf("unexpected decodable topic")
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
