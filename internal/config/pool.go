package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// PoolConfig holds the pool identity and admin settings read by the pool
// commands.
type PoolConfig struct {
	Config
	Caller     common.Address
	AssetA     common.Address
	AssetB     common.Address
	VaultA     common.Address
	VaultB     common.Address
	ShareAsset common.Address
	FeeBps     uint64
	Whitelist  []common.Address
}

// LoadPool merges config file, environment variables, and flags into
// PoolConfig. Asset addresses are required; the rest is validated by the
// command that needs it.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PoolConfig{}, err
	}
	cfg := PoolConfig{Config: fromViper(v), FeeBps: v.GetUint64("fee-bps")}
	if err := cfg.Validate(); err != nil {
		return PoolConfig{}, err
	}

	single := map[string]*common.Address{
		"caller":      &cfg.Caller,
		"asset-a":     &cfg.AssetA,
		"asset-b":     &cfg.AssetB,
		"vault-a":     &cfg.VaultA,
		"vault-b":     &cfg.VaultB,
		"share-asset": &cfg.ShareAsset,
	}
	for key, dst := range single {
		raw := v.GetString(key)
		if raw == "" {
			continue
		}
		addr, err := ParseAddress(raw)
		if err != nil {
			return PoolConfig{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = addr
	}
	if cfg.AssetA == (common.Address{}) || cfg.AssetB == (common.Address{}) {
		return PoolConfig{}, fmt.Errorf("asset-a and asset-b are required")
	}

	cfg.Whitelist, err = ParseAddresses(getStringSlice(v, "whitelist"))
	if err != nil {
		return PoolConfig{}, fmt.Errorf("whitelist: %w", err)
	}
	return cfg, nil
}
