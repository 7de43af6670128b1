package storage

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"hookAMM/internal/pool"
)

// Cached is a read-through LRU in front of another repository. Concurrent
// misses for the same key share one backend read.
type Cached struct {
	backend PoolRepository
	cache   *lru.Cache[pool.Key, *pool.State]
	group   singleflight.Group

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

func NewCached(backend PoolRepository, size int) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[pool.Key, *pool.State](size)
	if err != nil {
		return nil, err
	}
	return &Cached{backend: backend, cache: cache}, nil
}

func (c *Cached) Create(ctx context.Context, s *pool.State) error {
	if err := c.backend.Create(ctx, s); err != nil {
		return err
	}
	c.cache.Add(s.Key(), s.Clone())
	return nil
}

func (c *Cached) Get(ctx context.Context, key pool.Key) (*pool.State, error) {
	if s, ok := c.cache.Get(key); ok {
		c.count(true)
		return s.Clone(), nil
	}
	c.count(false)

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		s, err := c.backend.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, s.Clone())
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pool.State).Clone(), nil
}

// Update drops the cached entry on any failure so a conflict is resolved
// by the next read.
func (c *Cached) Update(ctx context.Context, s *pool.State) error {
	if err := c.backend.Update(ctx, s); err != nil {
		c.cache.Remove(s.Key())
		return err
	}
	c.cache.Add(s.Key(), s.Clone())
	return nil
}

func (c *Cached) List(ctx context.Context) ([]*pool.State, error) {
	return c.backend.List(ctx)
}

// Stats returns cache hit and miss counts.
func (c *Cached) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cached) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}
