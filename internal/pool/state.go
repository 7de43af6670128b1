// Package pool holds the persisted state of a two-asset pool and the rules
// for changing it.
package pool

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/amm"
	"hookAMM/internal/hook"
	"hookAMM/internal/model"
)

// Key is the ordered asset pair a pool is registered under. (A,B) and (B,A)
// are different pools.
type Key struct {
	AssetA common.Address
	AssetB common.Address
}

func (k Key) String() string {
	return k.AssetA.Hex() + "/" + k.AssetB.Hex()
}

// Model returns the hex form used in records.
func (k Key) Model() model.PoolKey {
	return model.PoolKey{AssetA: k.AssetA.Hex(), AssetB: k.AssetB.Hex()}
}

// Validate rejects a pair of identical assets.
func (k Key) Validate() error {
	if k.AssetA == k.AssetB {
		return fmt.Errorf("%w: asset a equals asset b (%s)", amm.ErrInvalidAsset, k.AssetA.Hex())
	}
	return nil
}

// State is the durable record of a pool. Reserves are not part of it; they
// are the ledger balances of VaultA and VaultB.
type State struct {
	Authority     common.Address
	AssetA        common.Address
	AssetB        common.Address
	VaultA        common.Address
	VaultB        common.Address
	ShareAsset    common.Address
	FeeRateBps    uint64
	ShareSupply   uint64
	HookWhitelist []common.Address
	Active        bool
	Version       uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Params configures a new pool.
type Params struct {
	Authority     common.Address
	AssetA        common.Address
	AssetB        common.Address
	VaultA        common.Address
	VaultB        common.Address
	ShareAsset    common.Address
	FeeRateBps    uint64
	HookWhitelist []common.Address
}

// Initialize validates params and returns an active pool with no shares.
func Initialize(p Params, now time.Time) (*State, error) {
	key := Key{AssetA: p.AssetA, AssetB: p.AssetB}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if p.FeeRateBps > amm.BpsDenominator {
		return nil, fmt.Errorf("%w: %d bps", amm.ErrInvalidFeeRate, p.FeeRateBps)
	}
	if err := validateWhitelist(p.HookWhitelist); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &State{
		Authority:     p.Authority,
		AssetA:        p.AssetA,
		AssetB:        p.AssetB,
		VaultA:        p.VaultA,
		VaultB:        p.VaultB,
		ShareAsset:    p.ShareAsset,
		FeeRateBps:    p.FeeRateBps,
		HookWhitelist: cloneAddresses(p.HookWhitelist),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *State) Key() Key {
	return Key{AssetA: s.AssetA, AssetB: s.AssetB}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.HookWhitelist = cloneAddresses(s.HookWhitelist)
	return &c
}

// SetWhitelist replaces the trusted authorizers. The list is validated in
// full before anything changes.
func (s *State) SetWhitelist(caller common.Address, list []common.Address, now time.Time) error {
	if err := s.requireAuthority(caller); err != nil {
		return err
	}
	if err := validateWhitelist(list); err != nil {
		return err
	}
	s.HookWhitelist = cloneAddresses(list)
	s.UpdatedAt = now.UTC()
	return nil
}

// SetActive toggles whether the pool accepts deposits and swaps.
func (s *State) SetActive(caller common.Address, active bool, now time.Time) error {
	if err := s.requireAuthority(caller); err != nil {
		return err
	}
	s.Active = active
	s.UpdatedAt = now.UTC()
	return nil
}

// AddShares records newly minted shares, including any locked minimum.
func (s *State) AddShares(n uint64, now time.Time) error {
	if s.ShareSupply+n < s.ShareSupply {
		return fmt.Errorf("%w: share supply overflow", amm.ErrInvalidCalculation)
	}
	s.ShareSupply += n
	s.UpdatedAt = now.UTC()
	return nil
}

// RemoveShares records burned shares.
func (s *State) RemoveShares(n uint64, now time.Time) error {
	if n > s.ShareSupply {
		return fmt.Errorf("%w: burn %d above supply %d", amm.ErrInsufficientBalance, n, s.ShareSupply)
	}
	s.ShareSupply -= n
	s.UpdatedAt = now.UTC()
	return nil
}

// CheckInvariants verifies the state against live reserves.
func (s *State) CheckInvariants(reserveA, reserveB uint64) error {
	if s.FeeRateBps > amm.BpsDenominator {
		return fmt.Errorf("%w: %d bps", amm.ErrInvalidFeeRate, s.FeeRateBps)
	}
	if len(s.HookWhitelist) > hook.MaxWhitelist {
		return fmt.Errorf("%w: whitelist has %d entries", amm.ErrInvalidCalculation, len(s.HookWhitelist))
	}
	if s.ShareSupply > 0 && (reserveA == 0 || reserveB == 0) {
		return fmt.Errorf("%w: supply %d with reserves %d/%d", amm.ErrInsufficientLiquidity, s.ShareSupply, reserveA, reserveB)
	}
	return nil
}

func (s *State) requireAuthority(caller common.Address) error {
	if caller != s.Authority {
		return fmt.Errorf("%w: %s is not the pool authority", amm.ErrUnauthorized, caller.Hex())
	}
	return nil
}

func validateWhitelist(list []common.Address) error {
	if len(list) > hook.MaxWhitelist {
		return fmt.Errorf("%w: whitelist has %d entries, max %d", amm.ErrInvalidCalculation, len(list), hook.MaxWhitelist)
	}
	seen := make(map[common.Address]struct{}, len(list))
	for _, addr := range list {
		if _, ok := seen[addr]; ok {
			return fmt.Errorf("%w: duplicate whitelist entry %s", amm.ErrInvalidCalculation, addr.Hex())
		}
		seen[addr] = struct{}{}
	}
	return nil
}

func cloneAddresses(in []common.Address) []common.Address {
	if in == nil {
		return nil
	}
	out := make([]common.Address, len(in))
	copy(out, in)
	return out
}
