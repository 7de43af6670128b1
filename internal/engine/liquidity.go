package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/amm"
	"hookAMM/internal/ledger"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// LockedShareOwner holds the minimum liquidity minted on a pool's first
// deposit. No provider can redeem from it.
var LockedShareOwner = common.Address{}

type AddLiquidityRequest struct {
	Key       pool.Key
	Provider  common.Address
	AmountA   uint64
	AmountB   uint64
	MinShares uint64
}

type AddLiquidityResult struct {
	Shares      uint64
	ShareSupply uint64
}

type RemoveLiquidityRequest struct {
	Key      pool.Key
	Provider common.Address
	LPAmount uint64
	MinA     uint64
	MinB     uint64
}

type RemoveLiquidityResult struct {
	AmountA     uint64
	AmountB     uint64
	ShareSupply uint64
}

// AddLiquidity deposits both assets and mints shares to the provider. The
// first deposit also mints amm.MinimumLiquidity shares to LockedShareOwner.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (res AddLiquidityResult, err error) {
	started := time.Now()
	unlock := e.locks.Lock(req.Key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "add_liquidity", req.Key, req.Provider, started, ev, err) }()

	if req.Provider == LockedShareOwner {
		return res, fmt.Errorf("%w: provider is the locked share owner", amm.ErrUnauthorized)
	}
	st, err := e.repo.Get(ctx, req.Key)
	if err != nil {
		return res, err
	}
	if err = e.requireActive(st); err != nil {
		return res, err
	}
	reserveA, reserveB, err := e.reserves(ctx, st)
	if err != nil {
		return res, err
	}

	shares, err := amm.IssueShares(req.AmountA, req.AmountB, reserveA, reserveB, st.ShareSupply)
	if err != nil {
		return res, err
	}
	if shares < req.MinShares {
		return res, fmt.Errorf("%w: %d shares below minimum %d", amm.ErrSlippageExceeded, shares, req.MinShares)
	}

	ops := []ledger.Op{
		ledger.Transfer(st.AssetA, req.Provider, st.VaultA, req.AmountA),
		ledger.Transfer(st.AssetB, req.Provider, st.VaultB, req.AmountB),
		ledger.Mint(st.ShareAsset, req.Provider, shares),
	}
	minted := shares
	if st.ShareSupply == 0 {
		ops = append(ops, ledger.Mint(st.ShareAsset, LockedShareOwner, amm.MinimumLiquidity))
		minted = amm.InitialShareSupply(req.AmountA, req.AmountB)
	}
	if err = e.apply(ctx, ops); err != nil {
		return res, err
	}
	if err = st.AddShares(minted, e.now()); err != nil {
		_ = e.revert(ctx, st, ops)
		return res, err
	}
	if err = e.commit(ctx, st, ops); err != nil {
		return res, err
	}

	res = AddLiquidityResult{Shares: shares, ShareSupply: st.ShareSupply}
	ev = e.event(model.EventLiquidityAdded, st, req.Provider, model.LiquidityEventData{
		Provider:    req.Provider.Hex(),
		AmountA:     req.AmountA,
		AmountB:     req.AmountB,
		Shares:      shares,
		ShareSupply: st.ShareSupply,
	})
	e.publishPool(ctx, st)
	e.logger.Info("liquidity added",
		zap.String("pool", req.Key.String()),
		zap.String("provider", req.Provider.Hex()),
		zap.Uint64("amount_a", req.AmountA),
		zap.Uint64("amount_b", req.AmountB),
		zap.Uint64("shares", shares),
	)
	return res, nil
}

// RemoveLiquidity burns shares and pays out the proportional reserves.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (res RemoveLiquidityResult, err error) {
	started := time.Now()
	unlock := e.locks.Lock(req.Key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "remove_liquidity", req.Key, req.Provider, started, ev, err) }()

	if req.Provider == LockedShareOwner {
		return res, fmt.Errorf("%w: locked shares cannot be redeemed", amm.ErrUnauthorized)
	}
	st, err := e.repo.Get(ctx, req.Key)
	if err != nil {
		return res, err
	}
	if err = e.requireActive(st); err != nil {
		return res, err
	}
	reserveA, reserveB, err := e.reserves(ctx, st)
	if err != nil {
		return res, err
	}

	amountA, amountB, err := amm.RedeemShares(req.LPAmount, reserveA, reserveB, st.ShareSupply)
	if err != nil {
		return res, err
	}
	if err = amm.CheckSlippage(amountA, req.MinA); err != nil {
		return res, fmt.Errorf("asset a: %w", err)
	}
	if err = amm.CheckSlippage(amountB, req.MinB); err != nil {
		return res, fmt.Errorf("asset b: %w", err)
	}

	ops := []ledger.Op{
		ledger.Burn(st.ShareAsset, req.Provider, req.LPAmount),
		ledger.Transfer(st.AssetA, st.VaultA, req.Provider, amountA),
		ledger.Transfer(st.AssetB, st.VaultB, req.Provider, amountB),
	}
	if err = e.apply(ctx, ops); err != nil {
		return res, err
	}
	if err = st.RemoveShares(req.LPAmount, e.now()); err != nil {
		_ = e.revert(ctx, st, ops)
		return res, err
	}
	if err = e.commit(ctx, st, ops); err != nil {
		return res, err
	}

	res = RemoveLiquidityResult{AmountA: amountA, AmountB: amountB, ShareSupply: st.ShareSupply}
	ev = e.event(model.EventLiquidityRemoved, st, req.Provider, model.LiquidityEventData{
		Provider:    req.Provider.Hex(),
		AmountA:     amountA,
		AmountB:     amountB,
		Shares:      req.LPAmount,
		ShareSupply: st.ShareSupply,
	})
	e.publishPool(ctx, st)
	e.logger.Info("liquidity removed",
		zap.String("pool", req.Key.String()),
		zap.String("provider", req.Provider.Hex()),
		zap.Uint64("shares", req.LPAmount),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
	)
	return res, nil
}
