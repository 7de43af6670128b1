package aggregate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hookAMM/internal/model"
	"hookAMM/internal/storage"
)

const (
	assetA = "0x000000000000000000000000000000000000000A"
	assetB = "0x000000000000000000000000000000000000000B"
)

func swapEvent(t *testing.T, in string, amountIn, amountOut, fee uint64, at time.Time) model.PoolEvent {
	t.Helper()
	out := assetB
	if in == assetB {
		out = assetA
	}
	ev, err := model.NewPoolEvent(model.EventSwap, model.PoolKey{AssetA: assetA, AssetB: assetB}, "0x01", 1, at, model.SwapEventData{
		AssetIn: in, AssetOut: out, AmountIn: amountIn, AmountOut: amountOut, Fee: fee,
	})
	require.NoError(t, err)
	return ev
}

func TestAccumulatorSwaps(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	acc := NewAccumulator(poolKey(assetA, assetB))

	require.NoError(t, acc.AddEvent(swapEvent(t, assetA, 10_000, 9_871, 30, t0)))
	require.NoError(t, acc.AddEvent(swapEvent(t, assetB, 5_000, 4_900, 15, t0.Add(time.Minute))))

	stats := acc.Stats(0, 0)
	require.EqualValues(t, 2, stats.SwapCount)
	require.Equal(t, "14900", stats.VolumeA)
	require.Equal(t, "14871", stats.VolumeB)
	require.Equal(t, "30", stats.FeeA)
	require.Equal(t, "15", stats.FeeB)
	require.Equal(t, t0.Add(time.Minute), stats.LastActivity)

	withDecimals := acc.Stats(3, 0)
	require.Equal(t, "14.900", withDecimals.VolumeA)
}

func TestAccumulatorRejectsForeignAsset(t *testing.T) {
	acc := NewAccumulator(poolKey(assetA, assetB))
	require.Error(t, acc.AddEvent(swapEvent(t, "0x00000000000000000000000000000000000000ff", 1, 1, 0, time.Now())))
	require.Zero(t, acc.SwapCount)
}

func TestAccumulatorCountsLiquidityAndErrors(t *testing.T) {
	acc := NewAccumulator(poolKey(assetA, assetB))
	key := model.PoolKey{AssetA: assetA, AssetB: assetB}
	add, err := model.NewPoolEvent(model.EventLiquidityAdded, key, "", 2, time.Now(), model.LiquidityEventData{})
	require.NoError(t, err)
	remove, err := model.NewPoolEvent(model.EventLiquidityRemoved, key, "", 3, time.Now(), model.LiquidityEventData{})
	require.NoError(t, err)

	require.NoError(t, acc.AddEvent(add))
	require.NoError(t, acc.AddEvent(remove))
	acc.AddError(model.NewOperationError(model.EventSwap, key, "", "SlippageExceeded", errors.New("x"), time.Now()))

	stats := acc.Stats(0, 0)
	require.EqualValues(t, 1, stats.DepositCount)
	require.EqualValues(t, 1, stats.WithdrawCount)
	require.EqualValues(t, 1, stats.RejectedCount)
}

func TestFormatTokenAmount(t *testing.T) {
	require.Equal(t, "0", formatTokenAmount(nil, 6))
}

func TestAggregatorRun(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	errs := filepath.Join(dir, "errors.jsonl")
	sink := storage.NewJsonlSink(events, errs)
	ctx := context.Background()
	key := model.PoolKey{AssetA: assetA, AssetB: assetB}

	require.NoError(t, sink.PutEvents(ctx, []model.PoolEvent{
		swapEvent(t, assetA, 100, 90, 1, time.Now()),
		swapEvent(t, assetA, 200, 170, 2, time.Now()),
	}))
	require.NoError(t, sink.PutErrors(ctx, []model.OperationError{
		model.NewOperationError(model.EventSwap, key, "", "HookNotWhitelisted", errors.New("x"), time.Now()),
	}))

	stats, err := NewAggregator(nil, nil).Run(ctx, events, errs)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.EqualValues(t, 2, stats[0].SwapCount)
	require.EqualValues(t, 1, stats[0].RejectedCount)
	require.Equal(t, "300", stats[0].VolumeA)

	// a missing errors file is not fatal
	_, err = NewAggregator(nil, nil).Run(ctx, events, filepath.Join(dir, "missing.jsonl"))
	require.NoError(t, err)

	_, err = NewAggregator(nil, nil).Run(ctx, filepath.Join(dir, "missing.jsonl"), "")
	require.Error(t, err)
}

func TestTrackerStatsUnknownPool(t *testing.T) {
	tr := NewTracker(func(string) uint8 { return 2 })
	stats := tr.Stats(model.PoolKey{AssetA: assetA, AssetB: assetB})
	require.Zero(t, stats.SwapCount)
	require.Equal(t, "0.00", stats.VolumeA)
}

func TestAggregatorSince(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	sink := storage.NewJsonlSink(events, "")
	ctx := context.Background()
	cut := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sink.PutEvents(ctx, []model.PoolEvent{
		swapEvent(t, assetA, 100, 90, 1, cut.Add(-time.Hour)),
		swapEvent(t, assetB, 50, 40, 1, cut.Add(time.Hour)),
	}))

	stats, err := NewAggregator(nil, nil).Since(cut).Run(ctx, events, "")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.EqualValues(t, 1, stats[0].SwapCount)
	require.Equal(t, "50", stats[0].VolumeB)
	require.Equal(t, "40", stats[0].VolumeA)
}
