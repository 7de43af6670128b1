package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/model"
)

// Record converts the state to its persisted form.
func (s *State) Record() model.PoolRecord {
	whitelist := make([]string, len(s.HookWhitelist))
	for i, addr := range s.HookWhitelist {
		whitelist[i] = addr.Hex()
	}
	return model.PoolRecord{
		Authority:     s.Authority.Hex(),
		AssetA:        s.AssetA.Hex(),
		AssetB:        s.AssetB.Hex(),
		VaultA:        s.VaultA.Hex(),
		VaultB:        s.VaultB.Hex(),
		ShareAsset:    s.ShareAsset.Hex(),
		FeeRateBps:    s.FeeRateBps,
		ShareSupply:   s.ShareSupply,
		HookWhitelist: whitelist,
		Active:        s.Active,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// FromRecord parses a persisted record.
func FromRecord(r model.PoolRecord) (*State, error) {
	s := &State{
		FeeRateBps:  r.FeeRateBps,
		ShareSupply: r.ShareSupply,
		Active:      r.Active,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	fields := []struct {
		name string
		in   string
		out  *common.Address
	}{
		{"authority", r.Authority, &s.Authority},
		{"asset_a", r.AssetA, &s.AssetA},
		{"asset_b", r.AssetB, &s.AssetB},
		{"vault_a", r.VaultA, &s.VaultA},
		{"vault_b", r.VaultB, &s.VaultB},
		{"share_asset", r.ShareAsset, &s.ShareAsset},
	}
	for _, f := range fields {
		addr, err := parseAddress(f.in)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.out = addr
	}
	if len(r.HookWhitelist) > 0 {
		s.HookWhitelist = make([]common.Address, len(r.HookWhitelist))
		for i, v := range r.HookWhitelist {
			addr, err := parseAddress(v)
			if err != nil {
				return nil, fmt.Errorf("parse hook_whitelist[%d]: %w", i, err)
			}
			s.HookWhitelist[i] = addr
		}
	}
	return s, nil
}

func parseAddress(v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid address %q", v)
	}
	return common.HexToAddress(v), nil
}
