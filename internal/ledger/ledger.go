// Package ledger is the balance store the engine moves assets through.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrReadOnly          = errors.New("ledger is read-only")
	ErrInvalidOp         = errors.New("invalid ledger op")
)

// OpKind selects what an Op does.
type OpKind uint8

const (
	OpTransfer OpKind = iota + 1
	OpMint
	OpBurn
)

func (k OpKind) String() string {
	switch k {
	case OpTransfer:
		return "transfer"
	case OpMint:
		return "mint"
	case OpBurn:
		return "burn"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// Op is one balance change. Mint credits To, Burn debits From.
type Op struct {
	Kind   OpKind
	Asset  common.Address
	From   common.Address
	To     common.Address
	Amount uint64
}

func Transfer(asset, from, to common.Address, amount uint64) Op {
	return Op{Kind: OpTransfer, Asset: asset, From: from, To: to, Amount: amount}
}

func Mint(asset, to common.Address, amount uint64) Op {
	return Op{Kind: OpMint, Asset: asset, To: to, Amount: amount}
}

func Burn(asset, from common.Address, amount uint64) Op {
	return Op{Kind: OpBurn, Asset: asset, From: from, Amount: amount}
}

// Ledger reads balances and applies batches of ops atomically: either every
// op in the batch takes effect or none does.
type Ledger interface {
	Balance(ctx context.Context, asset, owner common.Address) (uint64, error)
	Apply(ctx context.Context, ops []Op) error
}

// Reverse returns the batch that undoes ops.
func Reverse(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.Kind {
		case OpTransfer:
			out = append(out, Transfer(op.Asset, op.To, op.From, op.Amount))
		case OpMint:
			out = append(out, Burn(op.Asset, op.To, op.Amount))
		case OpBurn:
			out = append(out, Mint(op.Asset, op.From, op.Amount))
		}
	}
	return out
}
