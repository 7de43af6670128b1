// Package engine runs pool operations against a ledger and a repository.
//
// Every mutating operation holds the pool's lock across the sequence
// read pool, read reserves, compute, apply ledger batch, commit pool. If the
// commit fails after the ledger batch landed, the batch is reversed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/aggregate"
	"hookAMM/internal/amm"
	"hookAMM/internal/hook"
	"hookAMM/internal/ledger"
	"hookAMM/internal/metrics"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
	"hookAMM/internal/storage"
)

// Options carries the optional collaborators of an Engine.
type Options struct {
	Assets    *ledger.AssetRegistry
	Sink      storage.EventSink
	Simulator *hook.Simulator
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

type Engine struct {
	repo      storage.PoolRepository
	ledger    ledger.Ledger
	assets    *ledger.AssetRegistry
	sink      storage.EventSink
	simulator *hook.Simulator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time

	locks *keyedMutex
	stats *aggregate.Tracker
}

func New(repo storage.PoolRepository, ldg ledger.Ledger, opts Options) *Engine {
	if opts.Assets == nil {
		opts.Assets = ledger.NewAssetRegistry()
	}
	if opts.Sink == nil {
		opts.Sink = storage.Discard{}
	}
	if opts.Simulator == nil {
		opts.Simulator = hook.NewSimulator(nil, nil, 0, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	assets := opts.Assets
	return &Engine{
		repo:      repo,
		ledger:    ldg,
		assets:    assets,
		sink:      opts.Sink,
		simulator: opts.Simulator,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
		locks:     newKeyedMutex(),
		stats: aggregate.NewTracker(func(asset string) uint8 {
			return assets.Decimals(common.HexToAddress(asset))
		}),
	}
}

// Assets returns the registry used to decide which assets carry hooks.
func (e *Engine) Assets() *ledger.AssetRegistry {
	return e.assets
}

// Pool returns the stored pool.
func (e *Engine) Pool(ctx context.Context, key pool.Key) (*pool.State, error) {
	return e.repo.Get(ctx, key)
}

// Pools returns every stored pool.
func (e *Engine) Pools(ctx context.Context) ([]*pool.State, error) {
	return e.repo.List(ctx)
}

// Reserves returns the live vault balances of the pool.
func (e *Engine) Reserves(ctx context.Context, key pool.Key) (uint64, uint64, error) {
	st, err := e.repo.Get(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	return e.reserves(ctx, st)
}

// Stats returns the totals observed for the pool since the engine started.
func (e *Engine) Stats(key pool.Key) model.PoolStats {
	return e.stats.Stats(key.Model())
}

// AllStats returns the totals of every pool with activity.
func (e *Engine) AllStats() []model.PoolStats {
	return e.stats.All()
}

func (e *Engine) reserves(ctx context.Context, st *pool.State) (uint64, uint64, error) {
	a, err := e.ledger.Balance(ctx, st.AssetA, st.VaultA)
	if err != nil {
		return 0, 0, fmt.Errorf("read reserve a: %w", err)
	}
	b, err := e.ledger.Balance(ctx, st.AssetB, st.VaultB)
	if err != nil {
		return 0, 0, fmt.Errorf("read reserve b: %w", err)
	}
	return a, b, nil
}

// apply runs a ledger batch and maps shortfalls to amm.ErrInsufficientBalance.
func (e *Engine) apply(ctx context.Context, ops []ledger.Op) error {
	if err := e.ledger.Apply(ctx, ops); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fmt.Errorf("%w: %v", amm.ErrInsufficientBalance, err)
		}
		return fmt.Errorf("apply ledger batch: %w", err)
	}
	return nil
}

// commit checks st against the reserves left by ops, stores it, and
// reverses ops if either step fails.
func (e *Engine) commit(ctx context.Context, st *pool.State, ops []ledger.Op) error {
	err := e.verify(ctx, st)
	if err == nil {
		err = e.repo.Update(ctx, st)
	}
	if err == nil {
		return nil
	}
	if rerr := e.revert(ctx, st, ops); rerr != nil {
		return fmt.Errorf("commit pool: %w (revert failed: %v)", err, rerr)
	}
	return fmt.Errorf("commit pool: %w", err)
}

func (e *Engine) verify(ctx context.Context, st *pool.State) error {
	a, b, err := e.reserves(ctx, st)
	if err != nil {
		return err
	}
	if err := st.CheckInvariants(a, b); err != nil {
		return fmt.Errorf("pool invariant: %w", err)
	}
	return nil
}

// revert applies the inverse of ops, ignoring cancellation of ctx.
func (e *Engine) revert(ctx context.Context, st *pool.State, ops []ledger.Op) error {
	e.metrics.LedgerReverted()
	err := e.ledger.Apply(context.WithoutCancel(ctx), ledger.Reverse(ops))
	if err != nil {
		e.logger.Error("ledger revert failed",
			zap.String("pool", st.Key().String()),
			zap.Error(err),
		)
	}
	return err
}

// carriesHook reports whether transfers of asset run a transfer hook. Asset a
// of a pool is treated as hooked until the asset registry says otherwise.
func (e *Engine) carriesHook(st *pool.State, asset common.Address) bool {
	if meta, ok := e.assets.Get(asset); ok {
		return meta.TransferHook != ""
	}
	return asset == st.AssetA
}

func (e *Engine) requireActive(st *pool.State) error {
	if !st.Active {
		return fmt.Errorf("%w: %s", amm.ErrPoolInactive, st.Key())
	}
	return nil
}

// record journals and counts the outcome of an operation.
func (e *Engine) record(ctx context.Context, op string, key pool.Key, caller common.Address, started time.Time, ev *model.PoolEvent, opErr error) {
	code := amm.Code(opErr)
	e.metrics.ObserveOperation(op, code, started)

	if opErr != nil {
		rec := model.NewOperationError(op, key.Model(), caller.Hex(), code, opErr, e.now())
		e.stats.AddError(rec)
		if err := e.sink.PutErrors(ctx, []model.OperationError{rec}); err != nil {
			e.logger.Warn("journal error record failed", zap.Error(err))
		}
		e.logger.Warn("operation rejected",
			zap.String("op", op),
			zap.String("pool", key.String()),
			zap.String("caller", caller.Hex()),
			zap.String("code", code),
			zap.Error(opErr),
		)
		return
	}
	if ev == nil {
		return
	}
	if err := e.stats.AddEvent(*ev); err != nil {
		e.logger.Warn("stats update failed", zap.Error(err))
	}
	if err := e.sink.PutEvents(ctx, []model.PoolEvent{*ev}); err != nil {
		e.logger.Warn("journal event failed", zap.Error(err))
	}
}

// event builds a journal entry. Encoding failures are logged and yield nil
// since the operation itself already committed.
func (e *Engine) event(kind string, st *pool.State, caller common.Address, payload interface{}) *model.PoolEvent {
	ev, err := model.NewPoolEvent(kind, st.Key().Model(), caller.Hex(), st.Version, e.now(), payload)
	if err != nil {
		e.logger.Warn("encode journal event", zap.String("kind", kind), zap.Error(err))
		return nil
	}
	return &ev
}

func (e *Engine) publishPool(ctx context.Context, st *pool.State) {
	if e.metrics == nil {
		return
	}
	a, b, err := e.reserves(ctx, st)
	if err != nil {
		return
	}
	e.metrics.SetPoolState(st.Key().String(), st.AssetA.Hex(), st.AssetB.Hex(), a, b, st.ShareSupply)
}

func hexList(list []common.Address) []string {
	out := make([]string, len(list))
	for i, addr := range list {
		out[i] = addr.Hex()
	}
	return out
}
