package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/amm"
	"hookAMM/internal/hook"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// SimulateTransferRequest describes a transfer of one pool asset to pre-check
// against the pool's whitelist and the hook registry.
type SimulateTransferRequest struct {
	Key         pool.Key
	Asset       common.Address
	Source      common.Address
	Destination common.Address
	Amount      uint64
	Authorizers []common.Address
}

// SimulateTransfer reports whether a transfer would pass the hook checks. No
// balances or rate windows change. A rejected simulation is not an error.
func (e *Engine) SimulateTransfer(ctx context.Context, req SimulateTransferRequest) (report hook.Report, err error) {
	started := time.Now()
	var ev *model.PoolEvent
	defer func() { e.record(ctx, "simulate_transfer", req.Key, req.Source, started, ev, err) }()

	st, err := e.repo.Get(ctx, req.Key)
	if err != nil {
		return report, err
	}
	if req.Asset != st.AssetA && req.Asset != st.AssetB {
		return report, fmt.Errorf("%w: %s is not in pool %s", amm.ErrInvalidAsset, req.Asset.Hex(), req.Key)
	}

	report = e.simulator.Simulate(hook.SimulateRequest{
		Transfer: hook.Transfer{
			Asset:       req.Asset,
			Source:      req.Source,
			Destination: req.Destination,
			Amount:      req.Amount,
		},
		CarriesHook: e.carriesHook(st, req.Asset),
		Whitelist:   st.HookWhitelist,
		Authorizers: req.Authorizers,
	})

	data := model.SimulationEventData{
		Asset:       req.Asset.Hex(),
		Source:      req.Source.Hex(),
		Destination: req.Destination.Hex(),
		Amount:      req.Amount,
		Allowed:     report.Allowed,
		Reasons:     report.Reasons,
	}
	if report.Authorizer != (common.Address{}) {
		data.Authorizer = report.Authorizer.Hex()
	}
	ev = e.event(model.EventTransferSimulated, st, req.Source, data)
	return report, nil
}

// Quote prices a swap against live reserves without executing it.
func (e *Engine) Quote(ctx context.Context, key pool.Key, aToB bool, amountIn uint64) (amm.Quote, error) {
	st, err := e.repo.Get(ctx, key)
	if err != nil {
		return amm.Quote{}, err
	}
	reserveA, reserveB, err := e.reserves(ctx, st)
	if err != nil {
		return amm.Quote{}, err
	}
	if aToB {
		return amm.NewQuote(amountIn, reserveA, reserveB, st.FeeRateBps)
	}
	return amm.NewQuote(amountIn, reserveB, reserveA, st.FeeRateBps)
}
