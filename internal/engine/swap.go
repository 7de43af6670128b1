package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/amm"
	"hookAMM/internal/hook"
	"hookAMM/internal/ledger"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// SwapRequest sells AmountIn of one pool asset for the other. AToB selects
// asset a as the inbound side.
type SwapRequest struct {
	Key         pool.Key
	Trader      common.Address
	AToB        bool
	AmountIn    uint64
	MinOut      uint64
	Authorizers []common.Address
}

type SwapResult struct {
	AmountIn   uint64
	AmountOut  uint64
	Fee        uint64
	Authorizer common.Address
}

// leg resolves the inbound and outbound asset and vault of a swap direction.
type leg struct {
	assetIn, assetOut common.Address
	vaultIn, vaultOut common.Address
}

func swapLeg(st *pool.State, aToB bool) leg {
	if aToB {
		return leg{assetIn: st.AssetA, assetOut: st.AssetB, vaultIn: st.VaultA, vaultOut: st.VaultB}
	}
	return leg{assetIn: st.AssetB, assetOut: st.AssetA, vaultIn: st.VaultB, vaultOut: st.VaultA}
}

// Swap prices the trade against live reserves, checks the slippage floor and
// the hook gate of the inbound asset, then moves both legs in one ledger batch.
// The pool record itself is not written.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (res SwapResult, err error) {
	started := time.Now()
	unlock := e.locks.Lock(req.Key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "swap", req.Key, req.Trader, started, ev, err) }()

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
	l := swapLeg(st, req.AToB)
	reserveIn, reserveOut := reserveA, reserveB
	if !req.AToB {
		reserveIn, reserveOut = reserveB, reserveA
	}

	out, err := amm.PriceSwap(req.AmountIn, reserveIn, reserveOut, st.FeeRateBps)
	if err != nil {
		return res, err
	}
	if err = amm.CheckSlippage(out, req.MinOut); err != nil {
		return res, err
	}
	hooked := e.carriesHook(st, l.assetIn)
	if _, err = hook.AuthorizeTransfer(hooked, st.HookWhitelist, req.Authorizers); err != nil {
		e.metrics.HookRejected(req.Key.String(), l.assetIn.Hex())
		return res, fmt.Errorf("inbound asset %s: %w", l.assetIn.Hex(), err)
	}
	fee, err := amm.SwapFee(req.AmountIn, st.FeeRateBps)
	if err != nil {
		return res, err
	}

	ops := []ledger.Op{
		ledger.Transfer(l.assetIn, req.Trader, l.vaultIn, req.AmountIn),
		ledger.Transfer(l.assetOut, l.vaultOut, req.Trader, out),
	}
	if err = e.apply(ctx, ops); err != nil {
		return res, err
	}

	res = SwapResult{AmountIn: req.AmountIn, AmountOut: out, Fee: fee}
	if hooked {
		res.Authorizer, _ = hook.FirstTrusted(st.HookWhitelist, req.Authorizers)
		e.charge(req.Key, res.Authorizer, hook.Transfer{
			Asset:       l.assetIn,
			Source:      req.Trader,
			Destination: l.vaultIn,
			Amount:      req.AmountIn,
		})
	}
	data := model.SwapEventData{
		Trader:    req.Trader.Hex(),
		AssetIn:   l.assetIn.Hex(),
		AssetOut:  l.assetOut.Hex(),
		AmountIn:  req.AmountIn,
		AmountOut: out,
		Fee:       fee,
	}
	if res.Authorizer != (common.Address{}) {
		data.Authorizer = res.Authorizer.Hex()
	}
	ev = e.event(model.EventSwap, st, req.Trader, data)
	e.metrics.ObserveSwap(req.Key.String(), l.assetIn.Hex(), req.AmountIn, fee)
	e.publishPool(ctx, st)
	e.logger.Debug("swap executed",
		zap.String("pool", req.Key.String()),
		zap.String("trader", req.Trader.Hex()),
		zap.Bool("a_to_b", req.AToB),
		zap.Uint64("amount_in", req.AmountIn),
		zap.Uint64("amount_out", out),
	)
	return res, nil
}

// charge feeds an executed inbound transfer to the authorizer's hook policy.
// The swap already passed the gate, so a policy objection is only logged.
func (e *Engine) charge(key pool.Key, authorizer common.Address, t hook.Transfer) {
	if err := e.simulator.Charge(authorizer, t); err != nil {
		e.logger.Warn("executed swap outside hook policy",
			zap.String("pool", key.String()),
			zap.String("authorizer", authorizer.Hex()),
			zap.String("trader", t.Source.Hex()),
			zap.Uint64("amount", t.Amount),
			zap.Error(err),
		)
	}
}
