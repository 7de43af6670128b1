package scenario

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hookAMM/internal/hook"
	"hookAMM/internal/metrics"
	"hookAMM/internal/model"
	"hookAMM/internal/storage"
)

func TestHookedPoolScenario(t *testing.T) {
	sc, err := Load("testdata/hooked_pool.yaml")
	require.NoError(t, err)
	require.Equal(t, "hooked-pool", sc.Name)

	sink := &storage.MemorySink{}
	m := metrics.New()
	r := NewRunner(sc, Options{Sink: sink, Metrics: m})

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	for _, step := range report.Steps {
		require.True(t, step.Passed, "step %d (%s): %s", step.Index, step.Op, step.Detail)
	}
	require.Zero(t, report.Failed)
	require.Equal(t, len(sc.Steps), report.Passed)

	st, err := r.Engine().Pool(context.Background(), r.Key("main"))
	require.NoError(t, err)
	require.EqualValues(t, 500_500, st.ShareSupply)
	require.True(t, st.Active)

	stats := r.Engine().Stats(r.Key("main"))
	require.EqualValues(t, 2, stats.SwapCount)
	require.Equal(t, "0.015059", stats.VolumeA)
	require.Equal(t, "0.000015", stats.FeeB)

	var simulated int
	for _, ev := range sink.Events() {
		if ev.Kind == model.EventTransferSimulated {
			simulated++
		}
	}
	require.Equal(t, 2, simulated)
	require.NotEmpty(t, sink.Errors())

	lines, err := m.Summary()
	require.NoError(t, err)
	require.NotEmpty(t, lines)
}

func TestFailedExpectationIsReported(t *testing.T) {
	sc, err := Parse([]byte(`
name: wrong-expectation
pools:
  - {name: p, authority: admin, asset_a: x, asset_b: y, fee_bps: 30}
steps:
  - {op: init_pool, pool: p}
  - {op: fund, asset: x, caller: lp, amount: 100}
  - {op: fund, asset: y, caller: lp, amount: 100}
  - {op: add_liquidity, pool: p, caller: lp, amount_a: 100, amount_b: 100}
  - {op: set_active, pool: p, caller: admin, active: false, expect: Unauthorized}
`))
	require.NoError(t, err)

	report, err := NewRunner(sc, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Failed)

	// sqrt(100*100) is below the locked minimum
	add := report.Steps[3]
	require.False(t, add.Passed)
	require.Equal(t, "InvalidCalculation", add.Code)

	set := report.Steps[4]
	require.False(t, set.Passed)
	require.Empty(t, set.Code)
	require.Contains(t, set.Detail, `expected "Unauthorized"`)
}

func TestWantMismatch(t *testing.T) {
	sc, err := Parse([]byte(`
name: want
pools:
  - {name: p, authority: admin, asset_a: x, asset_b: y}
steps:
  - {op: init_pool, pool: p}
  - {op: fund, asset: x, caller: lp, amount: 4000000}
  - {op: fund, asset: y, caller: lp, amount: 1000000}
  - op: add_liquidity
    pool: p
    caller: lp
    amount_a: 4000000
    amount_b: 1000000
    want: {shares: 1, amount_out: 5}
`))
	require.NoError(t, err)

	report, err := NewRunner(sc, Options{}).Run(context.Background())
	require.NoError(t, err)
	step := report.Steps[3]
	require.False(t, step.Passed)
	require.Equal(t, "shares: want 1, got 1999000; amount_out not reported", step.Detail)
}

func TestRunStopsOnCancel(t *testing.T) {
	sc, err := Load("testdata/hooked_pool.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewRunner(sc, Options{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, report.Steps)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown op":              "pools: [{name: p, asset_a: x, asset_b: y}]\nsteps: [{op: teleport, pool: p}]",
		"unknown pool":            "steps: [{op: swap, pool: nowhere}]",
		"unknown field":           "name: x\ncolour: blue",
		"duplicate pool":          "pools: [{name: p, asset_a: x, asset_b: y}, {name: p, asset_a: x, asset_b: z}]",
		"set_active without flag": "pools: [{name: p, asset_a: x, asset_b: y}]\nsteps: [{op: set_active, pool: p}]",
		"bad direction":           "pools: [{name: p, asset_a: x, asset_b: y}]\nsteps: [{op: swap, pool: p, direction: sideways}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestPolicySpec(t *testing.T) {
	sc, err := Load("testdata/hooked_pool.yaml")
	require.NoError(t, err)

	rate, ok := sc.hook("rate-hook")
	require.True(t, ok)
	p, err := rate.Policy.Policy()
	require.NoError(t, err)
	rl, ok := p.(hook.RateLimitPolicy)
	require.True(t, ok)
	require.EqualValues(t, 1000, rl.MaxAmount)
	require.EqualValues(t, 5000, rl.WindowCap)
	require.Equal(t, "1h0m0s", rl.Window.String())

	kyc := PolicySpec{Kind: "kyc", Addresses: []string{"alice"}}
	p, err = kyc.Policy()
	require.NoError(t, err)
	require.Equal(t, hook.KYCPolicy{Verified: addresses([]string{"alice"})}, p)

	_, err = PolicySpec{Kind: "rate_limit", RateLimitPolicy: hook.RateLimitPolicy{WindowCap: 1}}.Policy()
	require.ErrorIs(t, err, ErrInvalidScenario)
	_, err = PolicySpec{Kind: "astrology"}.Policy()
	require.ErrorIs(t, err, ErrInvalidScenario)
}

func TestAddressResolution(t *testing.T) {
	hex := "0x00000000000000000000000000000000000000aa"
	require.Equal(t, common.HexToAddress(hex), Address(hex))
	require.Equal(t, Address("alice"), Address("alice"))
	require.NotEqual(t, Address("alice"), Address("bob"))
}
