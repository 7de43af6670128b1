// Package pebble stores pools in an embedded cockroachdb/pebble database.
package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"hookAMM/internal/amm"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
	"hookAMM/internal/storage"
)

var ErrDBClosed = errors.New("database is closed")

var poolPrefix = []byte("pool/")

// Store implements storage.PoolRepository. Keys are "pool/" followed by the
// 20-byte asset a and asset b.
type Store struct {
	db *pebble.DB

	// serializes read-check-write in Create and Update
	mu sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	return open(path, &pebble.Options{})
}

// OpenInMemory opens a database backed by an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(path string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func encodeKey(key pool.Key) []byte {
	out := make([]byte, 0, len(poolPrefix)+40)
	out = append(out, poolPrefix...)
	out = append(out, key.AssetA.Bytes()...)
	out = append(out, key.AssetB.Bytes()...)
	return out
}

// prefixEnd returns the first key after every key with the given prefix.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *Store) read(key pool.Key) (model.PoolRecord, bool, error) {
	if s.db == nil {
		return model.PoolRecord{}, false, ErrDBClosed
	}
	val, closer, err := s.db.Get(encodeKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return model.PoolRecord{}, false, nil
		}
		return model.PoolRecord{}, false, err
	}
	defer closer.Close()

	var rec model.PoolRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return model.PoolRecord{}, false, fmt.Errorf("decode pool %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *Store) write(key pool.Key, rec model.PoolRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode pool %s: %w", key, err)
	}
	return s.db.Set(encodeKey(key), data, pebble.Sync)
}

func (s *Store) Create(_ context.Context, st *pool.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := st.Key()
	_, ok, err := s.read(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", amm.ErrPoolAlreadyInitialized, key)
	}
	rec := st.Record()
	rec.Version = 1
	if err := s.write(key, rec); err != nil {
		return err
	}
	st.Version = 1
	return nil
}

func (s *Store) Get(_ context.Context, key pool.Key) (*pool.State, error) {
	rec, ok, err := s.read(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", amm.ErrPoolNotFound, key)
	}
	return pool.FromRecord(rec)
}

func (s *Store) Update(_ context.Context, st *pool.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := st.Key()
	cur, ok, err := s.read(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", amm.ErrPoolNotFound, key)
	}
	if cur.Version != st.Version {
		return fmt.Errorf("%w: %s stored %d, caller has %d", storage.ErrVersionConflict, key, cur.Version, st.Version)
	}
	rec := st.Record()
	rec.Version = st.Version + 1
	if err := s.write(key, rec); err != nil {
		return err
	}
	st.Version = rec.Version
	return nil
}

// List returns pools in key order.
func (s *Store) List(_ context.Context) ([]*pool.State, error) {
	if s.db == nil {
		return nil, ErrDBClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: poolPrefix,
		UpperBound: prefixEnd(poolPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*pool.State
	for iter.First(); iter.Valid(); iter.Next() {
		var rec model.PoolRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode pool: %w", err)
		}
		st, err := pool.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
