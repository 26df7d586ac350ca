package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolNotifier/internal/chain"
	"poolNotifier/internal/config"
	"poolNotifier/internal/dex"
	"poolNotifier/internal/storage/postgres"
)

func runCheckPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCheck(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	syncDB, _ := cmd.Flags().GetBool("sync-db")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := cfg.PoolsFile
	dsn := cfg.PGDSN
	if syncDB {
		if dsn == "" {
			return fmt.Errorf("sync-db requires a postgres dsn")
		}
		// The file is the source of truth when syncing into the registry.
		dsn = ""
	}

	pools, err := loadPools(ctx, source, dsn)
	if err != nil {
		return err
	}
	if err := config.ValidatePools(pools, cfg.Production); err != nil {
		return err
	}
	logger.Info("pool configuration valid", zap.Int("pools", len(pools)))

	mismatches := 0
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(out, "POOL\tINDEX\tSYMBOL\tCONFIGURED\tON-CHAIN\tTOKEN\tSTATUS")

		cache := dex.NewTokenInfoCache()
		for _, pool := range pools {
			checks, err := dex.VerifyPool(ctx, chainClient, pool, cfg.Production, cache, logger)
			if err != nil {
				return err
			}
			for _, check := range checks {
				status := "ok"
				if !check.DecimalsMatch() {
					status = "MISMATCH"
					mismatches++
				}
				fmt.Fprintf(out, "%s\t%d\t%s\t%d\t%d\t%s\t%s\n",
					pool.Name, check.Index, check.ConfiguredSymbol,
					check.ConfiguredDecimals, check.OnChain.Decimals, check.OnChain.Address, status)
			}
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}

	if mismatches > 0 {
		return fmt.Errorf("%d token(s) have decimals that differ from the chain", mismatches)
	}

	if syncDB {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		if err := store.UpsertPools(ctx, pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
		logger.Info("pool registry synced", zap.Int("pools", len(pools)))
	}
	return nil
}
