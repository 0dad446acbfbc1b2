package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "foodbike"

// StoreMetrics records persistence and order-lifecycle activity of the entity store.
type StoreMetrics struct {
	loadFailures  *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	autoCancels   prometheus.Counter
	reconcileRuns *prometheus.CounterVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	loadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unit_load_failures_total",
		Help:      "Storage units that could not be decoded on load and were reset.",
	}, []string{"unit"})
	writeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unit_write_failures_total",
		Help:      "Storage unit writes that failed during a flush.",
	}, []string{"unit"})
	flushDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_duration_seconds",
		Help:      "Duration of full-state flushes in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"driver"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Committed order lifecycle transitions.",
	}, []string{"action"})
	autoCancels := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_auto_cancellations_total",
		Help:      "Pending orders cancelled after the confirmation window elapsed.",
	})
	reconcileRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Seed reconciliation runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(loadFailures, writeFailures, flushDuration, transitions, autoCancels, reconcileRuns)
	return &StoreMetrics{
		loadFailures:  loadFailures,
		writeFailures: writeFailures,
		flushDuration: flushDuration,
		transitions:   transitions,
		autoCancels:   autoCancels,
		reconcileRuns: reconcileRuns,
	}
}

func (m *StoreMetrics) IncLoadFailure(unit string) {
	if m == nil || m.loadFailures == nil {
		return
	}
	m.loadFailures.WithLabelValues(normalizeLabel(unit)).Inc()
}

func (m *StoreMetrics) IncWriteFailure(unit string) {
	if m == nil || m.writeFailures == nil {
		return
	}
	m.writeFailures.WithLabelValues(normalizeLabel(unit)).Inc()
}

// ObserveFlush records how long one flush against driver took.
func (m *StoreMetrics) ObserveFlush(driver string, d time.Duration) {
	if m == nil || m.flushDuration == nil {
		return
	}
	m.flushDuration.WithLabelValues(normalizeLabel(driver)).Observe(d.Seconds())
}

func (m *StoreMetrics) IncTransition(action string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *StoreMetrics) AddAutoCancellations(n int) {
	if m == nil || m.autoCancels == nil || n <= 0 {
		return
	}
	m.autoCancels.Add(float64(n))
}

// IncReconcile counts one reconciler run; outcome is "changed", "noop" or "failed".
func (m *StoreMetrics) IncReconcile(outcome string) {
	if m == nil || m.reconcileRuns == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
