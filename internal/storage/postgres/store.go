package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolNotifier/internal/model"
)

// Schema creates the pool registry table.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_configs (
	name          TEXT PRIMARY KEY,
	address       TEXT NOT NULL,
	local_address TEXT NOT NULL DEFAULT '',
	tokens        TEXT[] NOT NULL,
	decimals      INTEGER[] NOT NULL,
	price_ids     TEXT[] NOT NULL,
	icon_url      TEXT,
	enabled       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a Postgres backed pool registry.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the registry table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

type poolRow struct {
	Name         string   `db:"name"`
	Address      string   `db:"address"`
	LocalAddress string   `db:"local_address"`
	Tokens       []string `db:"tokens"`
	Decimals     []int32  `db:"decimals"`
	PriceIDs     []string `db:"price_ids"`
	IconURL      *string  `db:"icon_url"`
}

// LoadPools returns every enabled pool ordered by name.
func (s *Store) LoadPools(ctx context.Context) ([]model.PoolConfig, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, address, local_address, tokens, decimals, price_ids, icon_url
		FROM pool_configs
		WHERE enabled
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query pool configs: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[poolRow])
	if err != nil {
		return nil, fmt.Errorf("scan pool configs: %w", err)
	}

	pools := make([]model.PoolConfig, 0, len(records))
	for _, record := range records {
		pools = append(pools, record.toModel())
	}
	return pools, nil
}

// UpsertPools inserts or updates pool configurations.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolConfig) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		row := rowFromModel(pool)
		batch.Queue(`
			INSERT INTO pool_configs (
				name, address, local_address, tokens, decimals, price_ids, icon_url, enabled, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now(), now())
			ON CONFLICT (name)
			DO UPDATE SET
				address = EXCLUDED.address,
				local_address = EXCLUDED.local_address,
				tokens = EXCLUDED.tokens,
				decimals = EXCLUDED.decimals,
				price_ids = EXCLUDED.price_ids,
				icon_url = EXCLUDED.icon_url,
				enabled = TRUE,
				updated_at = now()
		`,
			row.Name,
			row.Address,
			row.LocalAddress,
			row.Tokens,
			row.Decimals,
			row.PriceIDs,
			row.IconURL,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r poolRow) toModel() model.PoolConfig {
	decimals := make([]int, len(r.Decimals))
	for i, d := range r.Decimals {
		decimals[i] = int(d)
	}
	pool := model.PoolConfig{
		Name:         r.Name,
		Address:      r.Address,
		LocalAddress: r.LocalAddress,
		Tokens:       r.Tokens,
		Decimals:     decimals,
		PriceIDs:     r.PriceIDs,
	}
	if r.IconURL != nil {
		pool.IconURL = *r.IconURL
	}
	return pool
}

func rowFromModel(pool model.PoolConfig) poolRow {
	decimals := make([]int32, len(pool.Decimals))
	for i, d := range pool.Decimals {
		decimals[i] = int32(d)
	}
	row := poolRow{
		Name:         pool.Name,
		Address:      pool.Address,
		LocalAddress: pool.LocalAddress,
		Tokens:       pool.Tokens,
		Decimals:     decimals,
		PriceIDs:     pool.PriceIDs,
	}
	if pool.IconURL != "" {
		icon := pool.IconURL
		row.IconURL = &icon
	}
	return row
}
