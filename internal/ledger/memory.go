package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type balanceKey struct {
	asset common.Address
	owner common.Address
}

// Memory is an in-process ledger. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	balances map[balanceKey]uint64
	supply   map[common.Address]uint64
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[balanceKey]uint64),
		supply:   make(map[common.Address]uint64),
	}
}

func (m *Memory) Balance(_ context.Context, asset, owner common.Address) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey{asset, owner}], nil
}

// Supply returns the total minted amount of asset still outstanding.
func (m *Memory) Supply(asset common.Address) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supply[asset]
}

// Credit mints amount of asset to owner outside any batch, for funding.
func (m *Memory) Credit(asset, owner common.Address, amount uint64) error {
	return m.Apply(context.Background(), []Op{Mint(asset, owner, amount)})
}

// Apply stages every op against a scratch copy of the touched balances and
// publishes them only if all ops succeed.
func (m *Memory) Apply(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[balanceKey]uint64)
	stagedSupply := make(map[common.Address]uint64)
	get := func(k balanceKey) uint64 {
		if v, ok := staged[k]; ok {
			return v
		}
		return m.balances[k]
	}
	getSupply := func(a common.Address) uint64 {
		if v, ok := stagedSupply[a]; ok {
			return v
		}
		return m.supply[a]
	}

	for i, op := range ops {
		if op.Amount == 0 {
			continue
		}
		switch op.Kind {
		case OpTransfer:
			from := balanceKey{op.Asset, op.From}
			to := balanceKey{op.Asset, op.To}
			bal := get(from)
			if bal < op.Amount {
				return fmt.Errorf("op %d transfer %s: %w: have %d, need %d", i, op.Asset.Hex(), ErrInsufficientFunds, bal, op.Amount)
			}
			staged[from] = bal - op.Amount
			dst := get(to)
			if dst+op.Amount < dst {
				return fmt.Errorf("op %d transfer %s: %w: balance overflow", i, op.Asset.Hex(), ErrInvalidOp)
			}
			staged[to] = dst + op.Amount
		case OpMint:
			to := balanceKey{op.Asset, op.To}
			sup := getSupply(op.Asset)
			if sup+op.Amount < sup {
				return fmt.Errorf("op %d mint %s: %w: supply overflow", i, op.Asset.Hex(), ErrInvalidOp)
			}
			stagedSupply[op.Asset] = sup + op.Amount
			staged[to] = get(to) + op.Amount
		case OpBurn:
			from := balanceKey{op.Asset, op.From}
			bal := get(from)
			if bal < op.Amount {
				return fmt.Errorf("op %d burn %s: %w: have %d, need %d", i, op.Asset.Hex(), ErrInsufficientFunds, bal, op.Amount)
			}
			staged[from] = bal - op.Amount
			stagedSupply[op.Asset] = getSupply(op.Asset) - op.Amount
		default:
			return fmt.Errorf("op %d: %w: %s", i, ErrInvalidOp, op.Kind)
		}
	}

	for k, v := range staged {
		if v == 0 {
			delete(m.balances, k)
			continue
		}
		m.balances[k] = v
	}
	for a, v := range stagedSupply {
		m.supply[a] = v
	}
	return nil
}
