// Package watcher follows pool contracts from the chain head and hands every
// decoded event to a handler. It never backfills history.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolNotifier/internal/dex"
	"poolNotifier/internal/metrics"
	"poolNotifier/internal/model"
)

// Mode selects how new logs are obtained.
type Mode string

const (
	ModeAuto      Mode = "auto"
	ModePoll      Mode = "poll"
	ModeSubscribe Mode = "subscribe"
)

// seenWindow is how many blocks of log ids are kept for de-duplication.
const seenWindow = 64

var errSubscriptionClosed = errors.New("log subscription closed")

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModePoll:
		return ModePoll, nil
	case ModeSubscribe:
		return ModeSubscribe, nil
	default:
		return "", fmt.Errorf("unknown watch mode: %s", s)
	}
}

// LogSource is the chain access the watcher needs. *chain.Client satisfies it.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	SubscribeLogs(ctx context.Context, addresses []common.Address, topic0 []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error)
	SupportsSubscriptions() bool
}

// Handler receives every decoded event together with its pool.
type Handler func(ctx context.Context, pool model.PoolConfig, ev model.RawEvent)

// Config holds runtime settings for the watcher.
type Config struct {
	Pools        []model.PoolConfig
	Production   bool
	Mode         Mode
	PollInterval time.Duration
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Watcher streams pool logs from the chain to a Handler.
type Watcher struct {
	cfg     Config
	source  LogSource
	decoder *dex.StableSwapDecoder
	handler Handler
	logger  *zap.Logger

	pools  poolIndex
	topics []common.Hash
	seen   map[string]uint64
}

// New builds a Watcher with its dependencies.
func New(cfg Config, source LogSource, decoder *dex.StableSwapDecoder, handler Handler, logger *zap.Logger) (*Watcher, error) {
	if source == nil {
		return nil, fmt.Errorf("log source is nil")
	}
	if decoder == nil {
		return nil, fmt.Errorf("decoder is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if len(cfg.Pools) == 0 {
		return nil, fmt.Errorf("at least one pool is required")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be greater than zero")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pools, err := newPoolIndex(cfg.Pools, cfg.Production)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cfg:     cfg,
		source:  source,
		decoder: decoder,
		handler: handler,
		logger:  logger,
		pools:   pools,
		topics:  decoder.Topics(),
		seen:    make(map[string]uint64),
	}, nil
}

// Run watches until ctx is cancelled. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	mode := w.cfg.Mode
	if mode == ModeAuto {
		mode = ModePoll
		if w.source.SupportsSubscriptions() {
			mode = ModeSubscribe
		}
	}
	w.logger.Info("watcher started", zap.String("mode", string(mode)), zap.Int("pools", len(w.pools)))

	var err error
	if mode == ModeSubscribe {
		err = w.runSubscription(ctx)
	} else {
		err = w.runPolling(ctx)
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Watcher) runPolling(ctx context.Context) error {
	latest, err := w.latestWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	next := latest + 1
	w.logger.Info("polling from head", zap.Uint64("from", next))

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		next, err = w.poll(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("poll failed", zap.Uint64("from", next), zap.Error(err))
		}
	}
}

// poll delivers every log from next up to the current head and returns the
// block to continue from.
func (w *Watcher) poll(ctx context.Context, next uint64) (uint64, error) {
	latest, err := w.latestWithRetry(ctx)
	if err != nil {
		return next, fmt.Errorf("get latest block: %w", err)
	}
	if latest < next {
		return next, nil
	}

	for _, r := range catchUpRanges(next, latest, w.cfg.BatchSize) {
		logs, err := w.filterLogsWithRetry(ctx, r.from, r.to)
		if err != nil {
			return next, fmt.Errorf("filter logs: %w", err)
		}
		for _, log := range logs {
			w.handleLog(ctx, log)
		}
		next = r.to + 1
		w.logger.Debug("range complete", zap.Int("logs", len(logs)), zap.Uint64("from", r.from), zap.Uint64("to", r.to))
	}

	w.prune(next)
	return next, nil
}

func (w *Watcher) runSubscription(ctx context.Context) error {
	addresses := w.pools.addresses()
	for {
		ch := make(chan types.Log, 64)
		var sub ethereum.Subscription
		err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			sub, err = w.source.SubscribeLogs(ctx, addresses, w.topics, ch)
			if err != nil {
				w.logger.Warn("subscribe logs failed", zap.Error(err))
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("subscribe logs: %w", err)
		}
		w.logger.Info("subscribed to pool logs", zap.Int("addresses", len(addresses)))

		err = w.consume(ctx, sub, ch)
		sub.Unsubscribe()
		if err == nil {
			return nil
		}
		w.logger.Warn("log subscription dropped, resubscribing", zap.Error(err))
	}
}

func (w *Watcher) consume(ctx context.Context, sub ethereum.Subscription, ch <-chan types.Log) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				return errSubscriptionClosed
			}
			return err
		case log := <-ch:
			w.handleLog(ctx, log)
			w.prune(log.BlockNumber)
		}
	}
}

func (w *Watcher) handleLog(ctx context.Context, log types.Log) {
	logger := w.logger.With(zap.String("tx", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
	if log.Removed {
		logger.Debug("skip removed log")
		return
	}
	if w.isDuplicate(log) {
		return
	}

	pool, ok := w.pools[log.Address]
	if !ok {
		logger.Debug("skip log from unknown address", zap.String("address", log.Address.Hex()))
		return
	}

	ts, err := w.blockTimestampWithRetry(ctx, log.BlockNumber)
	if err != nil {
		logger.Warn("block timestamp unavailable", zap.Uint64("block_number", log.BlockNumber), zap.Error(err))
		ts = 0
	}

	ev, err := w.decoder.Decode(log, ts)
	if err != nil {
		metrics.EventDropped(pool.Name, "decode")
		logger.Error("decode log failed", zap.String("pool", pool.Name), zap.Error(err))
		return
	}

	w.handler(ctx, pool, ev)
}

func (w *Watcher) latestWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = w.source.LatestBlockNumber(ctx)
		if err != nil {
			w.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	return latest, err
}

func (w *Watcher) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = w.source.FilterLogs(ctx, fromBlock, toBlock, w.pools.addresses(), w.topics)
		if err != nil {
			w.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (w *Watcher) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = w.source.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			w.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (w *Watcher) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := w.seen[id]; ok {
		return true
	}
	w.seen[id] = log.BlockNumber
	return false
}

// prune forgets de-duplication entries and cached timestamps older than the window.
func (w *Watcher) prune(head uint64) {
	if head <= seenWindow {
		return
	}
	cutoff := head - seenWindow
	for id, block := range w.seen {
		if block < cutoff {
			delete(w.seen, id)
		}
	}
	if forgetter, ok := w.source.(interface{ ForgetTimestampsBefore(uint64) }); ok {
		forgetter.ForgetTimestampsBefore(cutoff)
	}
}
