// Package storage persists pool state and the operation journal.
package storage

import (
	"context"
	"errors"
	"fmt"

	"hookAMM/internal/amm"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// ErrVersionConflict is returned by Update when the stored version no
// longer matches the version the caller read.
var ErrVersionConflict = errors.New("pool version conflict")

func init() {
	amm.RegisterCode(ErrVersionConflict, "VersionConflict")
}

// PoolRepository stores pools keyed by their ordered asset pair.
//
// Create fails with amm.ErrPoolAlreadyInitialized for a known key and sets
// Version to 1. Get fails with amm.ErrPoolNotFound. Update writes s only if
// the stored version equals s.Version and then increments s.Version.
type PoolRepository interface {
	Create(ctx context.Context, s *pool.State) error
	Get(ctx context.Context, key pool.Key) (*pool.State, error)
	Update(ctx context.Context, s *pool.State) error
	List(ctx context.Context) ([]*pool.State, error)
}

// EventSink receives journal records.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.PoolEvent) error
	PutErrors(ctx context.Context, records []model.OperationError) error
}

func notFound(key pool.Key) error {
	return fmt.Errorf("%w: %s", amm.ErrPoolNotFound, key)
}

func alreadyInitialized(key pool.Key) error {
	return fmt.Errorf("%w: %s", amm.ErrPoolAlreadyInitialized, key)
}

func versionConflict(key pool.Key, have, want uint64) error {
	return fmt.Errorf("%w: %s stored %d, caller has %d", ErrVersionConflict, key, have, want)
}

// Discard drops every record.
type Discard struct{}

func (Discard) PutEvents(context.Context, []model.PoolEvent) error        { return nil }
func (Discard) PutErrors(context.Context, []model.OperationError) error { return nil }

// MultiSink fans records out to every sink and stops at the first error.
type MultiSink []EventSink

func (m MultiSink) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	for _, s := range m {
		if err := s.PutEvents(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) PutErrors(ctx context.Context, records []model.OperationError) error {
	for _, s := range m {
		if err := s.PutErrors(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
