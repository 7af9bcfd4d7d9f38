package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the platform-level metrics (not per-node-type)
type Metrics struct {
	// Registry metrics
	NodeTypes     prometheus.Gauge
	PluginsLoaded prometheus.Gauge
	PluginErrors  *prometheus.CounterVec

	// Status publishing metrics
	StatusPublished *prometheus.CounterVec
	PublishErrors   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		NodeTypes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nodeflow",
				Subsystem: "registry",
				Name:      "node_types",
				Help:      "Number of registered node types",
			},
		),

		PluginsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nodeflow",
				Subsystem: "plugins",
				Name:      "loaded",
				Help:      "Number of plugins currently loaded",
			},
		),

		PluginErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodeflow",
				Subsystem: "plugins",
				Name:      "errors_total",
				Help:      "Total number of plugin load failures",
			},
			[]string{"class"},
		),

		StatusPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodeflow",
				Subsystem: "status",
				Name:      "published_total",
				Help:      "Total number of cycle status messages published",
			},
			[]string{"subject"},
		),

		PublishErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nodeflow",
				Subsystem: "status",
				Name:      "publish_errors_total",
				Help:      "Total number of failed status publishes",
			},
		),
	}
}

func (m *Metrics) register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.NodeTypes,
		m.PluginsLoaded,
		m.PluginErrors,
		m.StatusPublished,
		m.PublishErrors,
	)
}

// RecordNodeTypes records the current number of registered node types
func (m *Metrics) RecordNodeTypes(n int) {
	m.NodeTypes.Set(float64(n))
}

// RecordPluginsLoaded records the current number of loaded plugins
func (m *Metrics) RecordPluginsLoaded(n int) {
	m.PluginsLoaded.Set(float64(n))
}

// RecordPluginError records a failed plugin load by error class
func (m *Metrics) RecordPluginError(class string) {
	m.PluginErrors.WithLabelValues(class).Inc()
}

// RecordStatusPublished records a published cycle status message
func (m *Metrics) RecordStatusPublished(subject string) {
	m.StatusPublished.WithLabelValues(subject).Inc()
}

// RecordPublishError records a failed status publish
func (m *Metrics) RecordPublishError() {
	m.PublishErrors.Inc()
}
