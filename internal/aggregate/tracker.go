package aggregate

import (
	"sort"
	"sync"

	"hookAMM/internal/model"
)

// DecimalsFunc resolves display decimals for an asset address.
type DecimalsFunc func(asset string) uint8

// Tracker keeps an Accumulator per pool and is safe for concurrent use.
type Tracker struct {
	mu           sync.Mutex
	accumulators map[model.PoolKey]*Accumulator
	decimals     DecimalsFunc
}

func NewTracker(decimals DecimalsFunc) *Tracker {
	if decimals == nil {
		decimals = func(string) uint8 { return 0 }
	}
	return &Tracker{
		accumulators: make(map[model.PoolKey]*Accumulator),
		decimals:     decimals,
	}
}

func (t *Tracker) get(assetA, assetB string) *Accumulator {
	key := poolKey(assetA, assetB)
	acc := t.accumulators[key]
	if acc == nil {
		acc = NewAccumulator(key)
		t.accumulators[key] = acc
	}
	return acc
}

func (t *Tracker) AddEvent(ev model.PoolEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(ev.AssetA, ev.AssetB).AddEvent(ev)
}

func (t *Tracker) AddError(rec model.OperationError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(rec.AssetA, rec.AssetB).AddError(rec)
}

// Stats returns the totals of one pool. Unknown pools report zeros.
func (t *Tracker) Stats(key model.PoolKey) model.PoolStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	acc := t.accumulators[poolKey(key.AssetA, key.AssetB)]
	if acc == nil {
		acc = NewAccumulator(poolKey(key.AssetA, key.AssetB))
	}
	return acc.Stats(t.decimals(key.AssetA), t.decimals(key.AssetB))
}

// All returns the totals of every pool seen, ordered by key.
func (t *Tracker) All() []model.PoolStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.PoolStats, 0, len(t.accumulators))
	for _, acc := range t.accumulators {
		out = append(out, acc.Stats(t.decimals(acc.Key.AssetA), t.decimals(acc.Key.AssetB)))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssetA != out[j].AssetA {
			return out[i].AssetA < out[j].AssetA
		}
		return out[i].AssetB < out[j].AssetB
	})
	return out
}
