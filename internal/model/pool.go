package model

import "time"

// PoolRecord is the persisted form of a pool. Addresses are 0x-prefixed hex.
type PoolRecord struct {
	Authority     string    `json:"authority"`
	AssetA        string    `json:"asset_a"`
	AssetB        string    `json:"asset_b"`
	VaultA        string    `json:"vault_a"`
	VaultB        string    `json:"vault_b"`
	ShareAsset    string    `json:"share_asset"`
	FeeRateBps    uint64    `json:"fee_rate_bps"`
	ShareSupply   uint64    `json:"share_supply,string"`
	HookWhitelist []string  `json:"hook_whitelist"`
	Active        bool      `json:"active"`
	Version       uint64    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PoolKey identifies a pool by its ordered asset pair.
type PoolKey struct {
	AssetA string `json:"asset_a"`
	AssetB string `json:"asset_b"`
}

// Key returns the ordered pair of the record.
func (r PoolRecord) Key() PoolKey {
	return PoolKey{AssetA: r.AssetA, AssetB: r.AssetB}
}

// String renders the key as "assetA/assetB".
func (k PoolKey) String() string {
	return k.AssetA + "/" + k.AssetB
}
