package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hookAMM/internal/amm"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
	"hookAMM/internal/storage"
)

// Store provides Postgres persistence for pools and the journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pgPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pgPool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const poolColumns = `asset_a, asset_b, authority, vault_a, vault_b, share_asset,
	fee_rate_bps, share_supply::text, hook_whitelist, active, version, created_at, updated_at`

func (s *Store) Create(ctx context.Context, st *pool.State) error {
	rec := st.Record()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			asset_a, asset_b, authority, vault_a, vault_b, share_asset,
			fee_rate_bps, share_supply, hook_whitelist, active, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9, $10, 1, $11, $12)
		ON CONFLICT (asset_a, asset_b) DO NOTHING
	`,
		rec.AssetA,
		rec.AssetB,
		rec.Authority,
		rec.VaultA,
		rec.VaultB,
		rec.ShareAsset,
		int64(rec.FeeRateBps),
		strconv.FormatUint(rec.ShareSupply, 10),
		rec.HookWhitelist,
		rec.Active,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", amm.ErrPoolAlreadyInitialized, st.Key())
	}
	st.Version = 1
	return nil
}

func (s *Store) Get(ctx context.Context, key pool.Key) (*pool.State, error) {
	k := key.Model()
	row := s.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE asset_a=$1 AND asset_b=$2`, k.AssetA, k.AssetB)
	rec, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", amm.ErrPoolNotFound, key)
		}
		return nil, err
	}
	return pool.FromRecord(rec)
}

// Update writes the pool if the stored version matches.
func (s *Store) Update(ctx context.Context, st *pool.State) error {
	rec := st.Record()
	tag, err := s.pool.Exec(ctx, `
		UPDATE pools SET
			authority = $3,
			vault_a = $4,
			vault_b = $5,
			share_asset = $6,
			fee_rate_bps = $7,
			share_supply = $8::text::numeric,
			hook_whitelist = $9,
			active = $10,
			version = version + 1,
			updated_at = $11
		WHERE asset_a = $1 AND asset_b = $2 AND version = $12
	`,
		rec.AssetA,
		rec.AssetB,
		rec.Authority,
		rec.VaultA,
		rec.VaultB,
		rec.ShareAsset,
		int64(rec.FeeRateBps),
		strconv.FormatUint(rec.ShareSupply, 10),
		rec.HookWhitelist,
		rec.Active,
		rec.UpdatedAt,
		int64(rec.Version),
	)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var stored int64
		err := s.pool.QueryRow(ctx, `SELECT version FROM pools WHERE asset_a=$1 AND asset_b=$2`, rec.AssetA, rec.AssetB).Scan(&stored)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", amm.ErrPoolNotFound, st.Key())
		}
		if err != nil {
			return fmt.Errorf("read pool version: %w", err)
		}
		return fmt.Errorf("%w: %s stored %d, caller has %d", storage.ErrVersionConflict, st.Key(), stored, rec.Version)
	}
	st.Version++
	return nil
}

func (s *Store) List(ctx context.Context) ([]*pool.State, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+poolColumns+` FROM pools`)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var out []*pool.State
	for rows.Next() {
		rec, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		st, err := pool.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	storage.SortStates(out)
	return out, nil
}

func scanPool(row pgx.Row) (model.PoolRecord, error) {
	var (
		rec     model.PoolRecord
		fee     int64
		supply  string
		version int64
	)
	err := row.Scan(
		&rec.AssetA,
		&rec.AssetB,
		&rec.Authority,
		&rec.VaultA,
		&rec.VaultB,
		&rec.ShareAsset,
		&fee,
		&supply,
		&rec.HookWhitelist,
		&rec.Active,
		&version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return model.PoolRecord{}, err
	}
	rec.ShareSupply, err = strconv.ParseUint(supply, 10, 64)
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("parse share supply %q: %w", supply, err)
	}
	rec.FeeRateBps = uint64(fee)
	rec.Version = uint64(version)
	return rec, nil
}

// PutEvents inserts journal events. Replayed ids are ignored.
func (s *Store) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO pool_events (id, kind, asset_a, asset_b, caller, version, payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			ev.ID,
			ev.Kind,
			ev.AssetA,
			ev.AssetB,
			ev.Caller,
			int64(ev.Version),
			[]byte(ev.Payload),
			ev.OccurredAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutErrors inserts failed operation records.
func (s *Store) PutErrors(ctx context.Context, records []model.OperationError) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO operation_errors (id, kind, asset_a, asset_b, caller, code, error, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			rec.ID,
			rec.Kind,
			rec.AssetA,
			rec.AssetB,
			rec.Caller,
			rec.Code,
			rec.Error,
			rec.OccurredAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
