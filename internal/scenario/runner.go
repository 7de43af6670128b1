package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/amm"
	"hookAMM/internal/engine"
	"hookAMM/internal/hook"
	"hookAMM/internal/ledger"
	"hookAMM/internal/metrics"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
	"hookAMM/internal/storage"
)

// Options wires the runner's engine. A nil Repo means an in-memory one.
type Options struct {
	Repo         storage.PoolRepository
	Sink         storage.EventSink
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	MaxRiskLevel uint8
	Now          func() time.Time
}

// StepResult is the outcome of one step. Code is the engine's error code, or
// empty on success.
type StepResult struct {
	Index  int    `json:"index"`
	Op     string `json:"op"`
	Pool   string `json:"pool,omitempty"`
	Code   string `json:"code,omitempty"`
	Expect string `json:"expect,omitempty"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type Report struct {
	Scenario string       `json:"scenario"`
	Steps    []StepResult `json:"steps"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
}

// Runner drives an engine backed by an in-memory ledger through a scenario.
type Runner struct {
	sc       *Scenario
	engine   *engine.Engine
	ledger   *ledger.Memory
	registry *hook.Registry
	logger   *zap.Logger
}

func NewRunner(sc *Scenario, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Repo == nil {
		opts.Repo = storage.NewMemory()
	}

	assets := ledger.NewAssetRegistry()
	for _, a := range sc.Assets {
		meta := model.AssetMeta{
			Address:  Address(a.Name).Hex(),
			Symbol:   a.Symbol,
			Decimals: a.Decimals,
		}
		if a.TransferHook != "" {
			meta.TransferHook = Address(a.TransferHook).Hex()
		}
		assets.Set(Address(a.Name), meta)
	}

	registry := hook.NewRegistry(Address(sc.RegistryAuthority))
	ldg := ledger.NewMemory()
	eng := engine.New(opts.Repo, ldg, engine.Options{
		Assets:    assets,
		Sink:      opts.Sink,
		Simulator: hook.NewSimulator(registry, hook.NewEvaluator(), opts.MaxRiskLevel, opts.Logger),
		Metrics:   opts.Metrics,
		Logger:    opts.Logger,
		Now:       opts.Now,
	})
	return &Runner{
		sc:       sc,
		engine:   eng,
		ledger:   ldg,
		registry: registry,
		logger:   opts.Logger,
	}
}

func (r *Runner) Engine() *engine.Engine { return r.engine }

func (r *Runner) Ledger() *ledger.Memory { return r.ledger }

// Key returns the engine key of a named pool.
func (r *Runner) Key(poolName string) pool.Key {
	p := r.sc.pool(poolName)
	return pool.Key{AssetA: Address(p.AssetA), AssetB: Address(p.AssetB)}
}

// Run executes every step in order. A step whose outcome differs from its
// expectation is reported as failed; the run continues with the next step.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{Scenario: r.sc.Name, Steps: make([]StepResult, 0, len(r.sc.Steps))}
	for i, st := range r.sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		got, err := r.exec(ctx, st)
		res := StepResult{
			Index:  i,
			Op:     st.Op,
			Pool:   st.Pool,
			Code:   amm.Code(err),
			Expect: st.Expect,
		}
		switch {
		case res.Code != st.Expect:
			res.Detail = fmt.Sprintf("expected %q, got %q", st.Expect, res.Code)
			if err != nil {
				res.Detail += ": " + err.Error()
			}
		case err == nil:
			res.Detail = compare(st.Want, got)
		}
		res.Passed = res.Detail == ""

		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
			r.logger.Warn("scenario step failed",
				zap.String("scenario", r.sc.Name),
				zap.Int("step", i),
				zap.String("op", st.Op),
				zap.String("detail", res.Detail),
			)
		}
		report.Steps = append(report.Steps, res)
	}

	r.logger.Info("scenario complete",
		zap.String("scenario", r.sc.Name),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (r *Runner) exec(ctx context.Context, st Step) (Want, error) {
	var got Want
	caller := Address(st.Caller)

	switch st.Op {
	case OpInitPool:
		p := r.sc.pool(st.Pool)
		_, err := r.engine.InitializePool(ctx, pool.Params{
			Authority:     Address(p.Authority),
			AssetA:        Address(p.AssetA),
			AssetB:        Address(p.AssetB),
			VaultA:        Address(p.Name + "/vault_a"),
			VaultB:        Address(p.Name + "/vault_b"),
			ShareAsset:    Address(p.Name + "/lp"),
			FeeRateBps:    p.FeeBps,
			HookWhitelist: addresses(p.Whitelist),
		})
		return got, err

	case OpSetWhitelist:
		return got, r.engine.SetWhitelist(ctx, r.Key(st.Pool), caller, addresses(st.Whitelist))

	case OpSetActive:
		return got, r.engine.SetActive(ctx, r.Key(st.Pool), caller, *st.Active)

	case OpFund:
		return got, r.ledger.Credit(Address(st.Asset), caller, st.Amount)

	case OpAddLiquidity:
		res, err := r.engine.AddLiquidity(ctx, engine.AddLiquidityRequest{
			Key:       r.Key(st.Pool),
			Provider:  caller,
			AmountA:   st.AmountA,
			AmountB:   st.AmountB,
			MinShares: st.MinShares,
		})
		got.Shares, got.ShareSupply = &res.Shares, &res.ShareSupply
		return got, err

	case OpRemoveLiquidity:
		res, err := r.engine.RemoveLiquidity(ctx, engine.RemoveLiquidityRequest{
			Key:      r.Key(st.Pool),
			Provider: caller,
			LPAmount: st.LPAmount,
			MinA:     st.MinA,
			MinB:     st.MinB,
		})
		got.AmountA, got.AmountB, got.ShareSupply = &res.AmountA, &res.AmountB, &res.ShareSupply
		return got, err

	case OpSwap:
		res, err := r.engine.Swap(ctx, engine.SwapRequest{
			Key:         r.Key(st.Pool),
			Trader:      caller,
			AToB:        st.Direction != "b_to_a",
			AmountIn:    st.Amount,
			MinOut:      st.MinOut,
			Authorizers: addresses(st.Authorizers),
		})
		got.AmountOut = &res.AmountOut
		return got, err

	case OpSimulate:
		rep, err := r.engine.SimulateTransfer(ctx, engine.SimulateTransferRequest{
			Key:         r.Key(st.Pool),
			Asset:       Address(st.Asset),
			Source:      caller,
			Destination: r.destination(st),
			Amount:      st.Amount,
			Authorizers: addresses(st.Authorizers),
		})
		got.Allowed = &rep.Allowed
		return got, err

	case OpApproveHook:
		spec, ok := r.sc.hook(st.Hook)
		if !ok {
			return got, fmt.Errorf("%w: hook %q not declared", ErrInvalidScenario, st.Hook)
		}
		policy, err := spec.Policy.Policy()
		if err != nil {
			return got, err
		}
		return got, r.registry.Approve(caller, hook.Entry{
			Program:     Address(spec.Program),
			Name:        spec.Name,
			Description: spec.Description,
			Active:      spec.Active,
			RiskLevel:   spec.RiskLevel,
			Policy:      policy,
		})

	case OpRevokeHook:
		return got, r.registry.Revoke(caller, Address(st.Hook))
	}
	return got, fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, st.Op)
}

// destination defaults a simulated transfer to the vault of the asset.
func (r *Runner) destination(st Step) common.Address {
	if st.To != "" {
		return Address(st.To)
	}
	p := r.sc.pool(st.Pool)
	if Address(st.Asset) == Address(p.AssetB) {
		return Address(p.Name + "/vault_b")
	}
	return Address(p.Name + "/vault_a")
}

func compare(want, got Want) string {
	var diffs []string
	u64 := func(name string, w, g *uint64) {
		switch {
		case w == nil:
		case g == nil:
			diffs = append(diffs, name+" not reported")
		case *w != *g:
			diffs = append(diffs, fmt.Sprintf("%s: want %d, got %d", name, *w, *g))
		}
	}
	u64("shares", want.Shares, got.Shares)
	u64("share_supply", want.ShareSupply, got.ShareSupply)
	u64("amount_out", want.AmountOut, got.AmountOut)
	u64("amount_a", want.AmountA, got.AmountA)
	u64("amount_b", want.AmountB, got.AmountB)
	if want.Allowed != nil {
		switch {
		case got.Allowed == nil:
			diffs = append(diffs, "allowed not reported")
		case *want.Allowed != *got.Allowed:
			diffs = append(diffs, fmt.Sprintf("allowed: want %t, got %t", *want.Allowed, *got.Allowed))
		}
	}
	return strings.Join(diffs, "; ")
}
