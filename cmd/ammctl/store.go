package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hookAMM/internal/config"
	"hookAMM/internal/storage"
	"hookAMM/internal/storage/pebble"
	"hookAMM/internal/storage/postgres"
)

// backend is the opened pool store and journal of a command.
type backend struct {
	repo   storage.PoolRepository
	sink   storage.EventSink
	cached *storage.Cached
	closes []func()
}

func (b *backend) Close() {
	for i := len(b.closes) - 1; i >= 0; i-- {
		b.closes[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{}
	var sinks storage.MultiSink
	if cfg.Journal != "" {
		sinks = append(sinks, storage.NewJsonlSink(cfg.Journal, cfg.JournalErrors))
	}

	switch cfg.Store {
	case config.StoreMemory:
		b.repo = storage.NewMemory()
	case config.StoreFile:
		repo, err := storage.OpenFileRepository(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		b.repo = repo
	case config.StorePebble:
		store, err := pebble.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		b.closes = append(b.closes, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close pebble store", zap.Error(err))
			}
		})
		b.repo = store
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closes = append(b.closes, store.Close)
		applied, err := store.Migrate(ctx)
		if err != nil {
			b.Close()
			return nil, err
		}
		if applied > 0 {
			logger.Info("postgres migrations applied", zap.Int("count", applied))
		}
		b.repo = store
		sinks = append(sinks, store)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.CacheSize > 0 {
		cached, err := storage.NewCached(b.repo, cfg.CacheSize)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.repo, b.cached = cached, cached
	}

	switch len(sinks) {
	case 0:
		b.sink = storage.Discard{}
	case 1:
		b.sink = sinks[0]
	default:
		b.sink = sinks
	}

	logger.Debug("store opened",
		zap.String("store", cfg.Store),
		zap.String("path", cfg.StorePath),
		zap.Int("cache_size", cfg.CacheSize),
		zap.String("journal", cfg.Journal),
	)
	return b, nil
}

func (b *backend) logCache(logger *zap.Logger) {
	if b.cached == nil {
		return
	}
	hits, misses := b.cached.Stats()
	logger.Debug("pool cache", zap.Uint64("hits", hits), zap.Uint64("misses", misses))
}
