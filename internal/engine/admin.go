package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// InitializePool creates an active pool with no shares.
func (e *Engine) InitializePool(ctx context.Context, params pool.Params) (st *pool.State, err error) {
	started := time.Now()
	key := pool.Key{AssetA: params.AssetA, AssetB: params.AssetB}
	unlock := e.locks.Lock(key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "init_pool", key, params.Authority, started, ev, err) }()

	st, err = pool.Initialize(params, e.now())
	if err != nil {
		return nil, err
	}
	if err = e.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	e.metrics.PoolInitialized()

	ev = e.event(model.EventPoolInitialized, st, params.Authority, model.InitEventData{
		Authority:     st.Authority.Hex(),
		FeeRateBps:    st.FeeRateBps,
		ShareAsset:    st.ShareAsset.Hex(),
		HookWhitelist: hexList(st.HookWhitelist),
	})
	e.logger.Info("pool initialized",
		zap.String("pool", key.String()),
		zap.Uint64("fee_bps", st.FeeRateBps),
		zap.Int("whitelist", len(st.HookWhitelist)),
	)
	return st, nil
}

// SetWhitelist replaces the pool's trusted hook authorizers.
func (e *Engine) SetWhitelist(ctx context.Context, key pool.Key, caller common.Address, list []common.Address) (err error) {
	started := time.Now()
	unlock := e.locks.Lock(key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "set_whitelist", key, caller, started, ev, err) }()

	st, err := e.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	if err = st.SetWhitelist(caller, list, e.now()); err != nil {
		return err
	}
	if err = e.repo.Update(ctx, st); err != nil {
		return err
	}
	ev = e.event(model.EventWhitelistUpdated, st, caller, model.WhitelistEventData{
		HookWhitelist: hexList(st.HookWhitelist),
	})
	e.logger.Info("whitelist updated", zap.String("pool", key.String()), zap.Int("entries", len(list)))
	return nil
}

// SetActive enables or disables swaps and liquidity operations.
func (e *Engine) SetActive(ctx context.Context, key pool.Key, caller common.Address, active bool) (err error) {
	started := time.Now()
	unlock := e.locks.Lock(key)
	defer unlock()

	var ev *model.PoolEvent
	defer func() { e.record(ctx, "set_active", key, caller, started, ev, err) }()

	st, err := e.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	if err = st.SetActive(caller, active, e.now()); err != nil {
		return err
	}
	if err = e.repo.Update(ctx, st); err != nil {
		return err
	}
	ev = e.event(model.EventActiveUpdated, st, caller, model.ActiveEventData{Active: active})
	e.logger.Info("pool active flag updated", zap.String("pool", key.String()), zap.Bool("active", active))
	return nil
}
