package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/chain"
	"hookAMM/internal/model"
)

// AssetRegistry caches asset metadata by address.
type AssetRegistry struct {
	mu   sync.RWMutex
	data map[common.Address]model.AssetMeta
}

func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{data: make(map[common.Address]model.AssetMeta)}
}

func (r *AssetRegistry) Get(address common.Address) (model.AssetMeta, bool) {
	r.mu.RLock()
	meta, ok := r.data[address]
	r.mu.RUnlock()
	return meta, ok
}

func (r *AssetRegistry) Set(address common.Address, meta model.AssetMeta) {
	r.mu.Lock()
	r.data[address] = meta
	r.mu.Unlock()
}

// CarriesHook reports whether transfers of the asset run a transfer hook.
// Unknown assets carry none.
func (r *AssetRegistry) CarriesHook(address common.Address) bool {
	meta, ok := r.Get(address)
	return ok && meta.TransferHook != ""
}

// Decimals returns the cached decimals, or 0 for unknown assets.
func (r *AssetRegistry) Decimals(address common.Address) uint8 {
	meta, _ := r.Get(address)
	return meta.Decimals
}

// Load fetches metadata for address via RPC unless already cached. A cached
// hook flag survives the refresh.
func (r *AssetRegistry) Load(ctx context.Context, caller chain.Caller, address common.Address, logger *zap.Logger) (model.AssetMeta, error) {
	if meta, ok := r.Get(address); ok && meta.Symbol != "" {
		return meta, nil
	}
	meta, err := chain.FetchAssetMeta(ctx, caller, address, logger)
	if err != nil {
		return model.AssetMeta{}, fmt.Errorf("load asset %s: %w", address.Hex(), err)
	}
	if prev, ok := r.Get(address); ok {
		meta.TransferHook = prev.TransferHook
	}
	r.Set(address, meta)
	return meta, nil
}
