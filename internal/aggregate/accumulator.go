package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"hookAMM/internal/model"
)

// Accumulator holds running totals for one pool.
type Accumulator struct {
	Key           model.PoolKey
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	RejectedCount uint64
	VolumeA       *big.Int
	VolumeB       *big.Int
	FeeA          *big.Int
	FeeB          *big.Int
	LastActivity  time.Time
}

func NewAccumulator(key model.PoolKey) *Accumulator {
	return &Accumulator{
		Key:     key,
		VolumeA: big.NewInt(0),
		VolumeB: big.NewInt(0),
		FeeA:    big.NewInt(0),
		FeeB:    big.NewInt(0),
	}
}

// AddEvent folds a journal event into the totals. Kinds without volume only
// move LastActivity.
func (a *Accumulator) AddEvent(ev model.PoolEvent) error {
	a.touch(ev.OccurredAt)

	switch ev.Kind {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(ev.Payload, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventLiquidityAdded:
		a.DepositCount++
	case model.EventLiquidityRemoved:
		a.WithdrawCount++
	}
	return nil
}

// AddError counts a rejected operation.
func (a *Accumulator) AddError(rec model.OperationError) {
	a.touch(rec.OccurredAt)
	a.RejectedCount++
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	in := new(big.Int).SetUint64(swap.AmountIn)
	out := new(big.Int).SetUint64(swap.AmountOut)
	fee := new(big.Int).SetUint64(swap.Fee)

	switch {
	case strings.EqualFold(swap.AssetIn, a.Key.AssetA):
		a.VolumeA.Add(a.VolumeA, in)
		a.VolumeB.Add(a.VolumeB, out)
		a.FeeA.Add(a.FeeA, fee)
	case strings.EqualFold(swap.AssetIn, a.Key.AssetB):
		a.VolumeB.Add(a.VolumeB, in)
		a.VolumeA.Add(a.VolumeA, out)
		a.FeeB.Add(a.FeeB, fee)
	default:
		return fmt.Errorf("swap asset %s not in pool %s", swap.AssetIn, a.Key)
	}
	a.SwapCount++
	return nil
}

func (a *Accumulator) touch(at time.Time) {
	if at.After(a.LastActivity) {
		a.LastActivity = at
	}
}

// Stats renders the totals with the given decimals.
func (a *Accumulator) Stats(decimalsA, decimalsB uint8) model.PoolStats {
	return model.PoolStats{
		AssetA:        a.Key.AssetA,
		AssetB:        a.Key.AssetB,
		SwapCount:     a.SwapCount,
		DepositCount:  a.DepositCount,
		WithdrawCount: a.WithdrawCount,
		RejectedCount: a.RejectedCount,
		VolumeA:       formatTokenAmount(a.VolumeA, decimalsA),
		VolumeB:       formatTokenAmount(a.VolumeB, decimalsB),
		FeeA:          formatTokenAmount(a.FeeA, decimalsA),
		FeeB:          formatTokenAmount(a.FeeB, decimalsB),
		LastActivity:  a.LastActivity,
	}
}
