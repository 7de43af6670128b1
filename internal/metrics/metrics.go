// Package metrics instruments engine operations with Prometheus.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	SwapVolume       *prometheus.CounterVec
	SwapFees         *prometheus.CounterVec
	ShareSupply      *prometheus.GaugeVec
	PoolReserves     *prometheus.GaugeVec
	HookRejections   *prometheus.CounterVec
	LedgerReverts    prometheus.Counter
	PoolsInitialized prometheus.Counter
}

// New registers the engine collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations by kind and result code",
			},
			[]string{"operation", "code"},
		),
		OperationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hookamm",
				Subsystem: "engine",
				Name:      "operation_latency_seconds",
				Help:      "Engine operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "pool",
				Name:      "swap_volume_total",
				Help:      "Swap input volume in base units",
			},
			[]string{"pool", "asset"},
		),
		SwapFees: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "pool",
				Name:      "swap_fees_total",
				Help:      "Swap fees retained by the pool in base units",
			},
			[]string{"pool", "asset"},
		),
		ShareSupply: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hookamm",
				Subsystem: "pool",
				Name:      "share_supply",
				Help:      "Outstanding LP shares including the locked minimum",
			},
			[]string{"pool"},
		),
		PoolReserves: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hookamm",
				Subsystem: "pool",
				Name:      "reserves",
				Help:      "Vault balances after the last operation",
			},
			[]string{"pool", "asset"},
		),
		HookRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "hook",
				Name:      "rejections_total",
				Help:      "Transfers refused by the hook gate",
			},
			[]string{"pool", "asset"},
		),
		LedgerReverts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "engine",
				Name:      "ledger_reverts_total",
				Help:      "Ledger batches undone after a failed pool commit",
			},
		),
		PoolsInitialized: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "hookamm",
				Subsystem: "engine",
				Name:      "pools_initialized_total",
				Help:      "Pools created",
			},
		),
	}
}

// Registry exposes the underlying registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOperation counts an operation outcome and its latency.
func (m *Metrics) ObserveOperation(op, code string, started time.Time) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.OperationsTotal.WithLabelValues(op, code).Inc()
	m.OperationLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveSwap(pool, assetIn string, amountIn, fee uint64) {
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(pool, assetIn).Add(float64(amountIn))
	m.SwapFees.WithLabelValues(pool, assetIn).Add(float64(fee))
}

func (m *Metrics) SetPoolState(pool, assetA, assetB string, reserveA, reserveB, supply uint64) {
	if m == nil {
		return
	}
	m.PoolReserves.WithLabelValues(pool, assetA).Set(float64(reserveA))
	m.PoolReserves.WithLabelValues(pool, assetB).Set(float64(reserveB))
	m.ShareSupply.WithLabelValues(pool).Set(float64(supply))
}

func (m *Metrics) HookRejected(pool, asset string) {
	if m == nil {
		return
	}
	m.HookRejections.WithLabelValues(pool, asset).Inc()
}

func (m *Metrics) LedgerReverted() {
	if m == nil {
		return
	}
	m.LedgerReverts.Inc()
}

func (m *Metrics) PoolInitialized() {
	if m == nil {
		return
	}
	m.PoolsInitialized.Inc()
}

// Summary renders counters and gauges as "name{labels} value" lines sorted
// by name. Histograms are reported by sample count.
func (m *Metrics) Summary() ([]string, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %s", mf.GetName(), formatLabels(metric.GetLabel()), formatValue(mf.GetType(), metric)))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(t dto.MetricType, metric *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", metric.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		return fmt.Sprintf("count=%d", metric.GetHistogram().GetSampleCount())
	default:
		return "?"
	}
}
