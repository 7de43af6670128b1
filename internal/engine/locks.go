package engine

import (
	"sync"

	"hookAMM/internal/pool"
)

// keyedMutex hands out one mutex per pool key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[pool.Key]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[pool.Key]*sync.Mutex)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key pool.Key) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
