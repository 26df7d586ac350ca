package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolNotifier/internal/chain"
	"poolNotifier/internal/compose"
	"poolNotifier/internal/config"
	"poolNotifier/internal/dex"
	"poolNotifier/internal/dispatch"
	"poolNotifier/internal/metrics"
	"poolNotifier/internal/notify"
	"poolNotifier/internal/pricing"
	"poolNotifier/internal/valuation"
	"poolNotifier/internal/watcher"
)

func runNotifier(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := dispatch.ParseDiagnosticPolicy(cfg.DiagnosticPolicy)
	if err != nil {
		return err
	}
	mode, err := watcher.ParseMode(cfg.WatchMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pools, err := loadPools(ctx, cfg.PoolsFile, cfg.PGDSN)
	if err != nil {
		return err
	}
	if err := config.ValidatePools(pools, cfg.Production); err != nil {
		return err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	priceClient := pricing.NewClient(pricing.Config{
		BaseURL:      cfg.Price.URL,
		APIKey:       cfg.Price.APIKey,
		MaxAttempts:  cfg.Price.MaxAttempts,
		RetryBackoff: cfg.Price.RetryBackoff,
	}, &http.Client{Timeout: cfg.Price.Timeout}, logger.Named("pricing"))

	primary, diagnostic := buildSenders(cfg, logger)

	dispatcher := dispatch.New(dispatch.Config{
		Compose: compose.Options{
			Production:        cfg.Production,
			ExplorerURL:       cfg.ExplorerURL,
			FooterText:        cfg.FooterText,
			FooterIconURL:     cfg.FooterIcon,
			EscalationMention: cfg.EscalationMention,
		},
		Policy: policy,
	}, valuation.NewEngine(priceClient, logger.Named("valuation")), primary, diagnostic, logger.Named("dispatch"))

	decoder, err := dex.NewStableSwapDecoder()
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{
		Pools:        pools,
		Production:   cfg.Production,
		Mode:         mode,
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, decoder, dispatcher.OnEvent, logger.Named("watcher"))
	if err != nil {
		return err
	}

	logger.Info("notifier start",
		zap.String("rpc", redactURL(cfg.RPCURL)),
		zap.String("chain_id", chainID.String()),
		zap.Int("pools", len(pools)),
		zap.Bool("production", cfg.Production),
		zap.String("watch_mode", string(mode)),
		zap.String("diagnostic_policy", string(policy)),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if diagnostic != nil {
		notice := fmt.Sprintf("Notifier started, using %s as the json rpc endpoint", redactURL(cfg.RPCURL))
		if err := diagnostic.SendText(ctx, notice); err != nil {
			logger.Warn("startup notice failed", zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("waiting for in-flight notifications")
	dispatcher.Wait()
	logger.Info("notifier stopped")
	return err
}

// buildSenders wires the primary and diagnostic channels. diagnostic is nil
// when no diagnostic destination is configured.
func buildSenders(cfg config.Config, logger *zap.Logger) (notify.MessageSender, notify.TextSender) {
	var primary notify.MessageSender
	var diagnostics notify.Fanout

	if cfg.DryRun {
		sink := notify.NewLogSink(logger.Named("dry-run"))
		primary = sink
		diagnostics = append(diagnostics, sink)
	} else {
		primary = notify.NewWebhook(notify.WebhookConfig{
			Name: "primary",
			URL:  cfg.DiscordWebhook,
			Rate: cfg.SendRate,
		}, nil, logger.Named("primary"))
		if cfg.DiscordLogWebhook != "" {
			diagnostics = append(diagnostics, notify.NewWebhook(notify.WebhookConfig{
				Name: "diagnostic",
				URL:  cfg.DiscordLogWebhook,
				Rate: cfg.SendRate,
			}, nil, logger.Named("diagnostic")))
		}
	}
	if cfg.DiagnosticFile != "" {
		diagnostics = append(diagnostics, notify.NewJSONLSink(cfg.DiagnosticFile))
	}

	if len(diagnostics) == 0 {
		return primary, nil
	}
	return primary, diagnostics
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// redactURL keeps only the scheme and host so API keys in paths or queries stay out of logs.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "<redacted>"
	}
	return parsed.Scheme + "://" + parsed.Host
}
