// Package scenario replays YAML descriptions of pool activity through the
// engine and checks each step against its expected outcome.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"

	"hookAMM/internal/amm"
	"hookAMM/internal/hook"
)

// Step operations.
const (
	OpInitPool        = "init_pool"
	OpSetWhitelist    = "set_whitelist"
	OpSetActive       = "set_active"
	OpFund            = "fund"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
	OpSimulate        = "simulate"
	OpApproveHook     = "approve_hook"
	OpRevokeHook      = "revoke_hook"
)

var ErrInvalidScenario = errors.New("invalid scenario")

func init() {
	amm.RegisterCode(ErrInvalidScenario, "InvalidScenario")
}

// Scenario is the decoded form of a scenario file. Every party is named; a
// name is either a hex address or a label mapped to a derived address.
type Scenario struct {
	Name              string      `yaml:"name"`
	RegistryAuthority string      `yaml:"registry_authority"`
	Assets            []AssetSpec `yaml:"assets"`
	Pools             []PoolSpec  `yaml:"pools"`
	Hooks             []HookSpec  `yaml:"hooks"`
	Steps             []Step      `yaml:"steps"`
}

type AssetSpec struct {
	Name         string `yaml:"name"`
	Symbol       string `yaml:"symbol"`
	Decimals     uint8  `yaml:"decimals"`
	TransferHook string `yaml:"transfer_hook"`
}

type PoolSpec struct {
	Name      string   `yaml:"name"`
	Authority string   `yaml:"authority"`
	AssetA    string   `yaml:"asset_a"`
	AssetB    string   `yaml:"asset_b"`
	FeeBps    uint64   `yaml:"fee_bps"`
	Whitelist []string `yaml:"whitelist"`
}

type HookSpec struct {
	Program     string     `yaml:"program"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Active      bool       `yaml:"active"`
	RiskLevel   uint8      `yaml:"risk_level"`
	Policy      PolicySpec `yaml:"policy"`
}

// PolicySpec selects a hook policy by Kind: whitelist, kyc, rate_limit or
// compliance. Addresses feeds the whitelist and kyc variants.
type PolicySpec struct {
	Kind      string                `yaml:"kind"`
	Addresses []string              `yaml:"addresses"`
	Rules     []hook.ComplianceRule `yaml:"rules"`

	hook.RateLimitPolicy `yaml:",inline"`
}

// Step is one operation. Only the fields its Op reads are used.
type Step struct {
	Op          string   `yaml:"op"`
	Pool        string   `yaml:"pool"`
	Caller      string   `yaml:"caller"`
	Asset       string   `yaml:"asset"`
	To          string   `yaml:"to"`
	Hook        string   `yaml:"hook"`
	Amount      uint64   `yaml:"amount"`
	AmountA     uint64   `yaml:"amount_a"`
	AmountB     uint64   `yaml:"amount_b"`
	LPAmount    uint64   `yaml:"lp_amount"`
	MinShares   uint64   `yaml:"min_shares"`
	MinA        uint64   `yaml:"min_a"`
	MinB        uint64   `yaml:"min_b"`
	MinOut      uint64   `yaml:"min_out"`
	Direction   string   `yaml:"direction"`
	Authorizers []string `yaml:"authorizers"`
	Whitelist   []string `yaml:"whitelist"`
	Active      *bool    `yaml:"active"`
	Expect      string   `yaml:"expect"`
	Want        Want     `yaml:"want"`
}

// Want holds optional value checks on a successful step.
type Want struct {
	Shares      *uint64 `yaml:"shares"`
	ShareSupply *uint64 `yaml:"share_supply"`
	AmountOut   *uint64 `yaml:"amount_out"`
	AmountA     *uint64 `yaml:"amount_a"`
	AmountB     *uint64 `yaml:"amount_b"`
	Allowed     *bool   `yaml:"allowed"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario document. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	pools := make(map[string]struct{}, len(sc.Pools))
	for _, p := range sc.Pools {
		if p.Name == "" || p.AssetA == "" || p.AssetB == "" {
			return fmt.Errorf("%w: pool needs name, asset_a and asset_b", ErrInvalidScenario)
		}
		if _, dup := pools[p.Name]; dup {
			return fmt.Errorf("%w: duplicate pool %q", ErrInvalidScenario, p.Name)
		}
		pools[p.Name] = struct{}{}
	}
	for i, st := range sc.Steps {
		switch st.Op {
		case OpApproveHook, OpRevokeHook:
			if st.Hook == "" {
				return fmt.Errorf("%w: step %d: %s needs hook", ErrInvalidScenario, i, st.Op)
			}
		case OpFund:
			if st.Asset == "" || st.Caller == "" {
				return fmt.Errorf("%w: step %d: fund needs asset and caller", ErrInvalidScenario, i)
			}
		case OpInitPool, OpSetWhitelist, OpSetActive, OpAddLiquidity, OpRemoveLiquidity, OpSwap, OpSimulate:
			if _, ok := pools[st.Pool]; !ok {
				return fmt.Errorf("%w: step %d: unknown pool %q", ErrInvalidScenario, i, st.Pool)
			}
		default:
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidScenario, i, st.Op)
		}
		if st.Op == OpSetActive && st.Active == nil {
			return fmt.Errorf("%w: step %d: set_active needs active", ErrInvalidScenario, i)
		}
		if st.Op == OpSwap && st.Direction != "" && st.Direction != "a_to_b" && st.Direction != "b_to_a" {
			return fmt.Errorf("%w: step %d: direction %q", ErrInvalidScenario, i, st.Direction)
		}
	}
	return nil
}

func (sc *Scenario) pool(name string) PoolSpec {
	for _, p := range sc.Pools {
		if p.Name == name {
			return p
		}
	}
	return PoolSpec{}
}

func (sc *Scenario) hook(program string) (HookSpec, bool) {
	for _, h := range sc.Hooks {
		if h.Program == program {
			return h, true
		}
	}
	return HookSpec{}, false
}

// Address resolves a scenario name. Hex addresses are taken as is; any other
// label maps to the last 20 bytes of its keccak256 hash.
func Address(name string) common.Address {
	if common.IsHexAddress(name) {
		return common.HexToAddress(name)
	}
	return common.BytesToAddress(crypto.Keccak256([]byte(name))[12:])
}

func addresses(names []string) []common.Address {
	if names == nil {
		return nil
	}
	out := make([]common.Address, len(names))
	for i, n := range names {
		out[i] = Address(n)
	}
	return out
}

// Policy builds the hook policy p describes.
func (p PolicySpec) Policy() (hook.Policy, error) {
	switch p.Kind {
	case "":
		return nil, nil
	case "whitelist":
		return hook.WhitelistPolicy{Destinations: addresses(p.Addresses)}, nil
	case "kyc":
		return hook.KYCPolicy{Verified: addresses(p.Addresses)}, nil
	case "rate_limit":
		if p.WindowCap > 0 && p.Window <= 0 {
			return nil, fmt.Errorf("%w: rate_limit window must be positive", ErrInvalidScenario)
		}
		return p.RateLimitPolicy, nil
	case "compliance":
		return hook.CompliancePolicy{Rules: p.Rules}, nil
	default:
		return nil, fmt.Errorf("%w: policy kind %q", ErrInvalidScenario, p.Kind)
	}
}
