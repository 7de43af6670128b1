package storage

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookAMM/internal/amm"
	"hookAMM/internal/pool"
)

func newState(t *testing.T, a, b byte) *pool.State {
	t.Helper()
	s, err := pool.Initialize(pool.Params{
		Authority:     common.BytesToAddress([]byte{0xf0}),
		AssetA:        common.BytesToAddress([]byte{a}),
		AssetB:        common.BytesToAddress([]byte{b}),
		VaultA:        common.BytesToAddress([]byte{0xc1}),
		VaultB:        common.BytesToAddress([]byte{0xc2}),
		ShareAsset:    common.BytesToAddress([]byte{0xd1}),
		FeeRateBps:    25,
		HookWhitelist: []common.Address{common.BytesToAddress([]byte{0xe1})},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return s
}

// exerciseRepository runs the contract every PoolRepository must satisfy.
func exerciseRepository(t *testing.T, repo PoolRepository) {
	ctx := context.Background()

	s := newState(t, 0x0a, 0x0b)
	require.NoError(t, repo.Create(ctx, s))
	require.EqualValues(t, 1, s.Version)
	require.ErrorIs(t, repo.Create(ctx, newState(t, 0x0a, 0x0b)), amm.ErrPoolAlreadyInitialized)

	// the reversed pair is a different pool
	require.NoError(t, repo.Create(ctx, newState(t, 0x0b, 0x0a)))

	got, err := repo.Get(ctx, s.Key())
	require.NoError(t, err)
	require.Equal(t, s, got)

	got.ShareSupply = 1_000_000
	require.NoError(t, repo.Update(ctx, got))
	require.EqualValues(t, 2, got.Version)
	require.ErrorIs(t, repo.Update(ctx, s), ErrVersionConflict)

	again, err := repo.Get(ctx, s.Key())
	require.NoError(t, err)
	require.EqualValues(t, 1_000_000, again.ShareSupply)
	require.EqualValues(t, 2, again.Version)

	_, err = repo.Get(ctx, pool.Key{AssetA: common.BytesToAddress([]byte{0x01}), AssetB: common.BytesToAddress([]byte{0x02})})
	require.ErrorIs(t, err, amm.ErrPoolNotFound)

	missing := newState(t, 0x01, 0x02)
	require.ErrorIs(t, repo.Update(ctx, missing), amm.ErrPoolNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, s.Key(), all[0].Key())
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestMemoryRepositoryIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newState(t, 0x0a, 0x0b)
	require.NoError(t, repo.Create(ctx, s))

	s.HookWhitelist[0] = common.Address{}
	got, err := repo.Get(ctx, s.Key())
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, got.HookWhitelist[0])
}

func TestFileRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pools.json")
	repo, err := OpenFileRepository(path)
	require.NoError(t, err)
	exerciseRepository(t, repo)

	reopened, err := OpenFileRepository(path)
	require.NoError(t, err)
	all, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.EqualValues(t, 1_000_000, all[0].ShareSupply)
}

func TestFileRepositoryRejectsDirectory(t *testing.T) {
	_, err := OpenFileRepository(t.TempDir())
	require.Error(t, err)

	_, err = OpenFileRepository("")
	require.Error(t, err)
}

func TestCachedRepository(t *testing.T) {
	cached, err := NewCached(NewMemory(), 8)
	require.NoError(t, err)
	exerciseRepository(t, cached)
}

// countingRepo counts backend reads.
type countingRepo struct {
	PoolRepository
	gets  atomic.Int64
	delay time.Duration
}

func (c *countingRepo) Get(ctx context.Context, key pool.Key) (*pool.State, error) {
	c.gets.Add(1)
	time.Sleep(c.delay)
	return c.PoolRepository.Get(ctx, key)
}

func TestCachedServesFromCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingRepo{PoolRepository: NewMemory()}
	s := newState(t, 0x0a, 0x0b)
	require.NoError(t, backend.Create(ctx, s))

	cached, err := NewCached(backend, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cached.Get(ctx, s.Key())
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, backend.gets.Load())
	hits, misses := cached.Stats()
	require.EqualValues(t, 2, hits)
	require.EqualValues(t, 1, misses)
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	backend := &countingRepo{PoolRepository: NewMemory(), delay: 50 * time.Millisecond}
	s := newState(t, 0x0a, 0x0b)
	require.NoError(t, backend.Create(ctx, s))

	cached, err := NewCached(backend, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Get(ctx, s.Key())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Less(t, backend.gets.Load(), int64(8))
}

func TestCachedDropsEntryOnConflict(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()
	cached, err := NewCached(backend, 8)
	require.NoError(t, err)

	s := newState(t, 0x0a, 0x0b)
	require.NoError(t, cached.Create(ctx, s))

	// another writer bypasses the cache
	other, err := backend.Get(ctx, s.Key())
	require.NoError(t, err)
	other.Active = false
	require.NoError(t, backend.Update(ctx, other))

	stale := s.Clone()
	require.ErrorIs(t, cached.Update(ctx, stale), ErrVersionConflict)

	fresh, err := cached.Get(ctx, s.Key())
	require.NoError(t, err)
	require.False(t, fresh.Active)
}
