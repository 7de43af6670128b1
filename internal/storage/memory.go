package storage

import (
	"context"
	"sort"
	"sync"

	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// Memory is an in-process PoolRepository.
type Memory struct {
	mu    sync.RWMutex
	pools map[pool.Key]*pool.State
}

func NewMemory() *Memory {
	return &Memory{pools: make(map[pool.Key]*pool.State)}
}

func (m *Memory) Create(_ context.Context, s *pool.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.Key()
	if _, ok := m.pools[key]; ok {
		return alreadyInitialized(key)
	}
	s.Version = 1
	m.pools[key] = s.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, key pool.Key) (*pool.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.pools[key]
	if !ok {
		return nil, notFound(key)
	}
	return s.Clone(), nil
}

func (m *Memory) Update(_ context.Context, s *pool.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.Key()
	cur, ok := m.pools[key]
	if !ok {
		return notFound(key)
	}
	if cur.Version != s.Version {
		return versionConflict(key, cur.Version, s.Version)
	}
	s.Version++
	m.pools[key] = s.Clone()
	return nil
}

func (m *Memory) List(_ context.Context) ([]*pool.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*pool.State, 0, len(m.pools))
	for _, s := range m.pools {
		out = append(out, s.Clone())
	}
	SortStates(out)
	return out, nil
}

// SortStates orders pools by asset a then asset b, comparing raw bytes.
func SortStates(states []*pool.State) {
	sort.Slice(states, func(i, j int) bool {
		if c := states[i].AssetA.Cmp(states[j].AssetA); c != 0 {
			return c < 0
		}
		return states[i].AssetB.Cmp(states[j].AssetB) < 0
	})
}

// MemorySink keeps journal records in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []model.PoolEvent
	errors []model.OperationError
}

func (m *MemorySink) PutEvents(_ context.Context, events []model.PoolEvent) error {
	m.mu.Lock()
	m.events = append(m.events, events...)
	m.mu.Unlock()
	return nil
}

func (m *MemorySink) PutErrors(_ context.Context, records []model.OperationError) error {
	m.mu.Lock()
	m.errors = append(m.errors, records...)
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events.
func (m *MemorySink) Events() []model.PoolEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PoolEvent(nil), m.events...)
}

// Errors returns a copy of the recorded errors.
func (m *MemorySink) Errors() []model.OperationError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OperationError(nil), m.errors...)
}
