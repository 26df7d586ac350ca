package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"poolNotifier/internal/config"
	"poolNotifier/internal/pricing"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrice(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.IDs) == 0 {
		return fmt.Errorf("at least one price id is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := pricing.NewClient(pricing.Config{
		BaseURL:      cfg.Price.URL,
		APIKey:       cfg.Price.APIKey,
		MaxAttempts:  cfg.Price.MaxAttempts,
		RetryBackoff: cfg.Price.RetryBackoff,
	}, &http.Client{Timeout: cfg.Price.Timeout}, logger)

	quote, err := client.FetchPrices(ctx, cfg.IDs)
	if err != nil {
		return err
	}
	for _, id := range cfg.IDs {
		if price, ok := quote[id]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, price.String())
		}
	}
	return nil
}
