package sched

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for scheduler
// runs. All metrics are namespaced with "interleave_".
//
// Metrics exposed:
//
// 1. handoffs_total (counter): yield-protocol calls that transferred the
// floor. Labels: run_id, worker_id.
//
// 2. skips_total (counter): yield-protocol calls suppressed by a skip set.
// Labels: run_id, worker_id.
//
// 3. active_workers (gauge): workers whose slot is still Active in the
// current run.
//
// 4. floor_hold_ms (histogram): how long a worker held the floor between
// receiving it and yielding it. Labels: run_id, worker_id.
// Buckets: [0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000].
//
// 5. runs_total (counter): completed Run invocations. Labels: status
// (success/error).
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := sched.NewPrometheusMetrics(registry)
//	s := sched.New(emitter, nil, sched.Options{Metrics: metrics})
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: the scheduler updates metrics under its run mutex; Enable,
// Disable, and Reset may be called from anywhere.
type PrometheusMetrics struct {
	handoffs  *prometheus.CounterVec
	skips     *prometheus.CounterVec
	active    prometheus.Gauge
	floorHold *prometheus.HistogramVec
	runs      *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all scheduler metrics with the
// provided Prometheus registry. Pass nil to use the default global
// registerer; a dedicated registry is recommended for isolation.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.handoffs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interleave",
		Name:      "handoffs_total",
		Help:      "Yield-protocol calls that transferred the floor to another worker",
	}, []string{"run_id", "worker_id"})

	pm.skips = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interleave",
		Name:      "skips_total",
		Help:      "Yield-protocol calls suppressed by the worker's skip set",
	}, []string{"run_id", "worker_id"})

	pm.active = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "interleave",
		Name:      "active_workers",
		Help:      "Workers whose slot is still active in the current run",
	})

	pm.floorHold = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interleave",
		Name:      "floor_hold_ms",
		Help:      "Time a worker held the floor between receiving it and yielding it, in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"run_id", "worker_id"})

	pm.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interleave",
		Name:      "runs_total",
		Help:      "Completed Run invocations by outcome",
	}, []string{"status"})

	return pm
}

// IncHandoffs increments the handoff counter for a worker.
func (pm *PrometheusMetrics) IncHandoffs(runID, workerID string) {
	if !pm.recording() {
		return
	}
	pm.handoffs.WithLabelValues(runID, workerID).Inc()
}

// IncSkips increments the skip counter for a worker.
func (pm *PrometheusMetrics) IncSkips(runID, workerID string) {
	if !pm.recording() {
		return
	}
	pm.skips.WithLabelValues(runID, workerID).Inc()
}

// SetActiveWorkers sets the active worker gauge.
func (pm *PrometheusMetrics) SetActiveWorkers(n int) {
	if !pm.recording() {
		return
	}
	pm.active.Set(float64(n))
}

// ObserveFloorHold records how long a worker held the floor before yielding.
func (pm *PrometheusMetrics) ObserveFloorHold(runID, workerID string, hold time.Duration) {
	if !pm.recording() {
		return
	}
	pm.floorHold.WithLabelValues(runID, workerID).Observe(float64(hold) / float64(time.Millisecond))
}

// IncRuns increments the completed-run counter. status is "success" or
// "error".
func (pm *PrometheusMetrics) IncRuns(status string) {
	if !pm.recording() {
		return
	}
	pm.runs.WithLabelValues(status).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset clears the gauge. Counters and histograms are cumulative by design
// and cannot be reset; this does not unregister metrics from the registry.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.active.Set(0)
}

func (pm *PrometheusMetrics) recording() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}
