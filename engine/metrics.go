package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/nodeflow/metric"
)

// engineMetrics holds Prometheus metrics for cycle evaluation.
type engineMetrics struct {
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram

	// By node type and outcome
	executions   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec // By node type
	skipped      prometheus.Counter
}

// newEngineMetrics creates and registers engine metrics with the provided registry.
func newEngineMetrics(registry *metric.MetricsRegistry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of completed evaluation cycles",
		}),

		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nodeflow",
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Evaluation cycle duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Subsystem: "engine",
			Name:      "node_executions_total",
			Help:      "Total number of node executions",
		}, []string{"type", "outcome"}), // outcome: ok, warning, error, tag

		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nodeflow",
			Subsystem: "engine",
			Name:      "node_duration_seconds",
			Help:      "Node execution duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"type"}),

		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Subsystem: "engine",
			Name:      "nodes_skipped_total",
			Help:      "Total number of clean nodes skipped",
		}),
	}

	if err := registry.RegisterCounter("engine", "cycles", m.cycles); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("engine", "cycle_duration", m.cycleDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("engine", "node_executions", m.executions); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("engine", "node_duration", m.nodeDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("engine", "nodes_skipped", m.skipped); err != nil {
		return nil, err
	}

	return m, nil
}

// recordNode records one node result.
func (m *engineMetrics) recordNode(res NodeResult) {
	if m == nil {
		return
	}
	if res.Skipped {
		m.skipped.Inc()
		return
	}

	m.executions.WithLabelValues(res.TypeName, res.Status.Outcome.String()).Inc()
	m.nodeDuration.WithLabelValues(res.TypeName).Observe(res.Elapsed.Seconds())
}

// recordCycle records a completed cycle.
func (m *engineMetrics) recordCycle(report *CycleReport) {
	if m == nil {
		return
	}

	m.cycles.Inc()
	m.cycleDuration.Observe(report.Duration.Seconds())
}
