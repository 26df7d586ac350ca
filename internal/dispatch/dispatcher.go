// Package dispatch runs the per-event pipeline: value, compose, send.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poolNotifier/internal/amount"
	"poolNotifier/internal/compose"
	"poolNotifier/internal/metrics"
	"poolNotifier/internal/model"
	"poolNotifier/internal/notify"
	"poolNotifier/internal/pricing"
	"poolNotifier/internal/valuation"
)

// DiagnosticPolicy decides when the raw event goes to the diagnostic channel.
type DiagnosticPolicy string

const (
	// PolicyAlways sends the raw event whether or not valuation succeeded.
	PolicyAlways DiagnosticPolicy = "always"
	// PolicyOnSuccess sends the raw event only alongside a primary message.
	PolicyOnSuccess DiagnosticPolicy = "on-success"
)

func ParseDiagnosticPolicy(s string) (DiagnosticPolicy, error) {
	switch DiagnosticPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAlways:
		return PolicyAlways, nil
	case PolicyOnSuccess:
		return PolicyOnSuccess, nil
	default:
		return "", fmt.Errorf("unknown diagnostic policy: %s", s)
	}
}

// Valuer values a raw event against its pool.
type Valuer interface {
	Value(ctx context.Context, ev model.RawEvent, pool model.PoolConfig) (model.ValuationResult, error)
}

// Config holds the dispatcher settings.
type Config struct {
	Compose compose.Options
	Policy  DiagnosticPolicy
}

// Outcome reports what Process did with one event.
type Outcome struct {
	TaskID         string
	Message        *model.NotificationMessage
	Err            error
	DiagnosticSent bool
}

// Dispatcher owns no per-event state; every event carries its pool and
// payload into its own task.
type Dispatcher struct {
	cfg        Config
	valuer     Valuer
	primary    notify.MessageSender
	diagnostic notify.TextSender
	logger     *zap.Logger

	tasks sync.WaitGroup
	sends sync.WaitGroup
}

// New builds a Dispatcher. diagnostic may be nil.
func New(cfg Config, valuer Valuer, primary notify.MessageSender, diagnostic notify.TextSender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAlways
	}
	return &Dispatcher{
		cfg:        cfg,
		valuer:     valuer,
		primary:    primary,
		diagnostic: diagnostic,
		logger:     logger,
	}
}

// OnEvent starts an independent task for ev and returns immediately. The task
// is detached from ctx cancellation: once started it runs to completion or
// failure, and shutdown only stops new events from arriving.
func (d *Dispatcher) OnEvent(ctx context.Context, pool model.PoolConfig, ev model.RawEvent) {
	ctx = context.WithoutCancel(ctx)
	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		d.Process(ctx, pool, ev)
	}()
}

// Process runs the pipeline for one event. Sends are started but not awaited.
func (d *Dispatcher) Process(ctx context.Context, pool model.PoolConfig, ev model.RawEvent) Outcome {
	out := Outcome{TaskID: uuid.NewString()}
	logger := d.logger.With(
		zap.String("task", out.TaskID),
		zap.String("pool", pool.Name),
		zap.String("event", string(ev.Kind)),
		zap.String("tx", ev.TxHash),
	)
	metrics.EventReceived(pool.Name, string(ev.Kind))
	started := time.Now()

	raw, err := json.Marshal(ev)
	if err != nil {
		logger.Error("marshal raw event failed", zap.Error(err))
	}

	val, err := d.valuer.Value(ctx, ev, pool)
	if err != nil {
		out.Err = err
		reason := DropReason(err)
		metrics.EventDropped(pool.Name, reason)
		metrics.ObservePipeline(string(ev.Kind), reason, started)
		logger.Error("valuation failed, primary notification suppressed",
			zap.String("reason", reason), zap.Error(err))
		if d.cfg.Policy == PolicyAlways && raw != nil {
			out.DiagnosticSent = d.sendText(ctx, logger, string(raw))
		}
		return out
	}

	msg := compose.Compose(ev, val, pool, d.cfg.Compose)
	out.Message = &msg
	metrics.ObservePipeline(string(ev.Kind), "notified", started)
	metrics.EventNotified(pool.Name, string(ev.Kind), val.Anomaly)
	if val.Anomaly {
		logger.Warn("abnormal exchange rate", zap.String("rate", val.ExchangeRate.String()))
	}

	d.sendMessage(ctx, logger, msg)
	if raw != nil {
		out.DiagnosticSent = d.sendText(ctx, logger, string(raw))
	}
	return out
}

// Wait blocks until every started task and send has finished.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
	d.sends.Wait()
}

func (d *Dispatcher) sendMessage(ctx context.Context, logger *zap.Logger, msg model.NotificationMessage) {
	if d.primary == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.sends.Add(1)
	go func() {
		defer d.sends.Done()
		err := d.primary.SendMessage(ctx, msg)
		metrics.Send("primary", err)
		if err != nil {
			logger.Error("primary send failed", zap.Error(err))
		}
	}()
}

func (d *Dispatcher) sendText(ctx context.Context, logger *zap.Logger, text string) bool {
	if d.diagnostic == nil {
		return false
	}
	ctx = context.WithoutCancel(ctx)
	d.sends.Add(1)
	go func() {
		defer d.sends.Done()
		err := d.diagnostic.SendText(ctx, text)
		metrics.Send("diagnostic", err)
		if err != nil {
			logger.Error("diagnostic send failed", zap.Error(err))
		}
	}()
	return true
}

// DropReason maps a pipeline error to a metrics label.
func DropReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, pricing.ErrPriceFetchExhausted):
		return "price_exhausted"
	case errors.Is(err, pricing.ErrMissingPriceQuote):
		return "missing_quote"
	case errors.Is(err, amount.ErrInvalidPrecision):
		return "invalid_precision"
	case errors.Is(err, valuation.ErrTokenIndex):
		return "token_index"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
