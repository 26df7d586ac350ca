package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"poolNotifier/internal/model"
)

// DecodeError describes a log that could not be turned into a RawEvent.
type DecodeError struct {
	TxHash   string
	LogIndex uint
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s:%d: %v", e.TxHash, e.LogIndex, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StableSwapDecoder decodes StableSwap pool events into RawEvents.
type StableSwapDecoder struct {
	poolABI     abi.ABI
	topicToKind map[common.Hash]model.EventKind
}

// NewStableSwapDecoder builds a decoder for all supported pool events.
func NewStableSwapDecoder() (*StableSwapDecoder, error) {
	poolABI, err := StableSwapABI()
	if err != nil {
		return nil, err
	}

	kinds := []model.EventKind{
		model.EventSwap,
		model.EventAddLiquidity,
		model.EventRemoveLiquidity,
		model.EventRemoveLiquidityOne,
		model.EventRemoveLiquidityImbalance,
	}
	topicToKind := make(map[common.Hash]model.EventKind, len(kinds))
	for _, kind := range kinds {
		event, ok := poolABI.Events[string(kind)]
		if !ok {
			return nil, fmt.Errorf("abi is missing event %s", kind)
		}
		topicToKind[event.ID] = kind
	}

	return &StableSwapDecoder{poolABI: poolABI, topicToKind: topicToKind}, nil
}

// Topics returns the topic0 hashes of every supported event.
func (d *StableSwapDecoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.topicToKind))
	for _, kind := range []model.EventKind{
		model.EventSwap,
		model.EventAddLiquidity,
		model.EventRemoveLiquidity,
		model.EventRemoveLiquidityOne,
		model.EventRemoveLiquidityImbalance,
	} {
		topics = append(topics, d.poolABI.Events[string(kind)].ID)
	}
	return topics
}

// CanDecode checks if the topic0 is supported.
func (d *StableSwapDecoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToKind[topic0]
	return ok
}

// Decode converts a chain log into a RawEvent. timestamp is the block time.
func (d *StableSwapDecoder) Decode(log types.Log, timestamp uint64) (model.RawEvent, error) {
	ev, err := d.decode(log)
	if err != nil {
		return model.RawEvent{}, &DecodeError{TxHash: log.TxHash.Hex(), LogIndex: log.Index, Err: err}
	}
	ev.Pool = log.Address.Hex()
	ev.TxHash = log.TxHash.Hex()
	ev.BlockNumber = log.BlockNumber
	ev.LogIndex = uint64(log.Index)
	ev.Timestamp = timestamp
	return ev, nil
}

func (d *StableSwapDecoder) decode(log types.Log) (model.RawEvent, error) {
	if len(log.Topics) == 0 {
		return model.RawEvent{}, fmt.Errorf("missing topics")
	}
	kind, ok := d.topicToKind[log.Topics[0]]
	if !ok {
		return model.RawEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}
	event := d.poolABI.Events[string(kind)]

	actor, err := parseActor(event, log.Topics)
	if err != nil {
		return model.RawEvent{}, err
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.RawEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	ev := model.RawEvent{Kind: kind, Actor: actor.Hex()}
	switch kind {
	case model.EventSwap:
		err = decodeSwap(&ev, values)
	case model.EventRemoveLiquidityOne:
		err = decodeRemoveOne(&ev, values)
	default:
		err = decodeAmounts(&ev, values)
	}
	if err != nil {
		return model.RawEvent{}, err
	}
	return ev, nil
}

// TokenSwap: tokensSold, tokensBought, soldId, boughtId.
func decodeSwap(ev *model.RawEvent, values []interface{}) error {
	if len(values) != 4 {
		return fmt.Errorf("unexpected swap values: %d", len(values))
	}
	nums, err := asBigInts(values)
	if err != nil {
		return err
	}
	soldID, err := tokenIndex(nums[2])
	if err != nil {
		return err
	}
	boughtID, err := tokenIndex(nums[3])
	if err != nil {
		return err
	}
	ev.Amounts = []*big.Int{nums[0], nums[1]}
	ev.TokenIndices = []int{soldID, boughtID}
	return nil
}

// RemoveLiquidityOne: lpTokenAmount, lpTokenSupply, boughtId, tokensBought.
func decodeRemoveOne(ev *model.RawEvent, values []interface{}) error {
	if len(values) != 4 {
		return fmt.Errorf("unexpected remove one values: %d", len(values))
	}
	nums, err := asBigInts(values)
	if err != nil {
		return err
	}
	boughtID, err := tokenIndex(nums[2])
	if err != nil {
		return err
	}
	ev.Amounts = []*big.Int{nums[3]}
	ev.TokenIndices = []int{boughtID}
	return nil
}

// AddLiquidity, RemoveLiquidity and RemoveLiquidityImbalance lead with tokenAmounts.
func decodeAmounts(ev *model.RawEvent, values []interface{}) error {
	if len(values) == 0 {
		return fmt.Errorf("missing token amounts")
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return fmt.Errorf("unsupported token amounts type %T", values[0])
	}
	ev.Amounts = make([]*big.Int, len(amounts))
	ev.TokenIndices = make([]int, len(amounts))
	for i, amount := range amounts {
		ev.Amounts[i] = new(big.Int).Set(amount)
		ev.TokenIndices[i] = i
	}
	return nil
}

func parseActor(event abi.Event, topics []common.Hash) (common.Address, error) {
	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return common.Address{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(topics))
	}
	out := make(map[string]interface{}, len(indexed))
	if err := abi.ParseTopicsIntoMap(out, indexed, topics[1:]); err != nil {
		return common.Address{}, fmt.Errorf("parse topics: %w", err)
	}
	return asAddress(out[indexed[0].Name])
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asBigInts(values []interface{}) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(values))
	for _, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func tokenIndex(n *big.Int) (int, error) {
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() > 255 {
		return 0, fmt.Errorf("token index out of range: %s", n)
	}
	return int(n.Int64()), nil
}
