package main

import (
	"context"

	"poolNotifier/internal/config"
	"poolNotifier/internal/model"
	"poolNotifier/internal/storage/postgres"
)

// loadPools reads the pool registry from Postgres when dsn is set and from
// the pools file otherwise.
func loadPools(ctx context.Context, file, dsn string) ([]model.PoolConfig, error) {
	if dsn == "" {
		return config.LoadPoolsFile(file)
	}
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadPools(ctx)
}
