package postgres

import (
	"context"
	"fmt"
)

type migration struct {
	Version     int
	Description string
	Up          string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "pools and journal",
		Up: `
		CREATE TABLE IF NOT EXISTS pools (
			asset_a TEXT NOT NULL,
			asset_b TEXT NOT NULL,
			authority TEXT NOT NULL,
			vault_a TEXT NOT NULL,
			vault_b TEXT NOT NULL,
			share_asset TEXT NOT NULL,
			fee_rate_bps INT NOT NULL,
			share_supply NUMERIC(20, 0) NOT NULL,
			hook_whitelist TEXT[] NOT NULL,
			active BOOLEAN NOT NULL,
			version BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (asset_a, asset_b)
		);

		CREATE TABLE IF NOT EXISTS pool_events (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			asset_a TEXT NOT NULL,
			asset_b TEXT NOT NULL,
			caller TEXT NOT NULL,
			version BIGINT NOT NULL,
			payload JSONB NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pool_events_pool ON pool_events(asset_a, asset_b, occurred_at DESC);
		CREATE INDEX IF NOT EXISTS idx_pool_events_kind ON pool_events(kind);

		CREATE TABLE IF NOT EXISTS operation_errors (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			asset_a TEXT NOT NULL,
			asset_b TEXT NOT NULL,
			caller TEXT NOT NULL,
			code TEXT NOT NULL,
			error TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_operation_errors_code ON operation_errors(code);
		`,
	},
}

// Migrate applies pending schema migrations in one transaction.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := tx.Exec(ctx, m.Up); err != nil {
			return 0, fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			m.Version, m.Description,
		); err != nil {
			return 0, fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit migrations: %w", err)
	}
	return applied, nil
}
