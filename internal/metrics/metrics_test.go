package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()
	m.ObserveOperation("swap", "", time.Now())
	m.ObserveOperation("swap", "SlippageExceeded", time.Now())
	m.ObserveOperation("swap", "", time.Now())

	require.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("swap", "OK")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("swap", "SlippageExceeded")))
}

func TestPoolGauges(t *testing.T) {
	m := New()
	m.SetPoolState("A/B", "A", "B", 100, 200, 141)
	m.ObserveSwap("A/B", "A", 1000, 3)
	m.HookRejected("A/B", "A")

	require.Equal(t, 200.0, testutil.ToFloat64(m.PoolReserves.WithLabelValues("A/B", "B")))
	require.Equal(t, 141.0, testutil.ToFloat64(m.ShareSupply.WithLabelValues("A/B")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.SwapFees.WithLabelValues("A/B", "A")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.HookRejections.WithLabelValues("A/B", "A")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("swap", "", time.Now())
	m.LedgerReverted()
	lines, err := m.Summary()
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestSummary(t *testing.T) {
	m := New()
	m.PoolInitialized()
	m.ObserveOperation("init_pool", "", time.Now())

	lines, err := m.Summary()
	require.NoError(t, err)
	require.Contains(t, lines, "hookamm_engine_pools_initialized_total 1")
	require.Contains(t, lines, `hookamm_engine_operations_total{code="OK",operation="init_pool"} 1`)
	require.Contains(t, lines, `hookamm_engine_operation_latency_seconds{operation="init_pool"} count=1`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PoolInitialized()
	require.Equal(t, 1.0, testutil.ToFloat64(a.PoolsInitialized))
	require.Equal(t, 0.0, testutil.ToFloat64(b.PoolsInitialized))
}
