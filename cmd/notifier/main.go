package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolNotifier/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "notifier",
		Short:        "StableSwap pool event notifier",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch pools and post notifications",
		RunE:  runNotifier,
	}

	runCmd.Flags().String("rpc", "", "JSON-RPC endpoint (ws/wss enables log subscriptions)")
	runCmd.Flags().String("pools", "./pools.yaml", "pool configuration file (YAML or JSON)")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN to load pools from instead of the pools file")
	runCmd.Flags().Bool("production", false, "use production pool addresses and footer")
	addPriceFlags(runCmd)
	runCmd.Flags().String("discord-webhook", "", "primary channel webhook URL")
	runCmd.Flags().String("discord-log-webhook", "", "diagnostic channel webhook URL")
	runCmd.Flags().String("diagnostic-file", "", "append diagnostic payloads to this JSONL file")
	runCmd.Flags().String("diagnostic-policy", "always", "when to send raw events to the diagnostic channel (always, on-success)")
	runCmd.Flags().String("explorer-url", "https://etherscan.io", "block explorer base URL")
	runCmd.Flags().String("escalation-mention", "", "mention added to abnormal exchange rate alerts")
	runCmd.Flags().String("footer-text", "", "message footer text in production")
	runCmd.Flags().String("footer-icon", "", "message footer icon URL")
	runCmd.Flags().String("watch-mode", "auto", "log source (auto, poll, subscribe)")
	runCmd.Flags().Duration("poll-interval", 12*time.Second, "head polling interval")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per log query")
	runCmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	runCmd.Flags().Float64("send-rate", 1, "webhook sends per second per channel")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	runCmd.Flags().Bool("dry-run", false, "log notifications instead of posting them")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check-pools",
		Short: "Validate pool configuration and compare decimals with on-chain tokens",
		RunE:  runCheckPools,
	}

	checkCmd.Flags().String("rpc", "", "JSON-RPC endpoint, empty skips on-chain checks")
	checkCmd.Flags().String("pools", "./pools.yaml", "pool configuration file (YAML or JSON)")
	checkCmd.Flags().String("pg-dsn", "", "Postgres DSN to load pools from instead of the pools file")
	checkCmd.Flags().Bool("production", false, "check production pool addresses")
	checkCmd.Flags().Bool("sync-db", false, "write the pools file into the Postgres registry after checking")
	checkCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(checkCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Fetch USD prices for price-provider ids",
		RunE:  runPrice,
	}

	priceCmd.Flags().StringSlice("ids", nil, "price-provider ids (comma-separated)")
	addPriceFlags(priceCmd)
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPriceFlags(cmd *cobra.Command) {
	cmd.Flags().String("price-url", "https://api.coingecko.com/api/v3", "price service base URL")
	cmd.Flags().String("price-api-key", "", "price service API key")
	cmd.Flags().Int("price-max-attempts", 5, "price fetch attempts before giving up")
	cmd.Flags().Duration("price-retry-backoff", 500*time.Millisecond, "initial price retry backoff")
	cmd.Flags().Duration("price-timeout", 10*time.Second, "price request timeout")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
