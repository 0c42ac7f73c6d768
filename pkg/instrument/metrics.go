package instrument

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/hookrt/pkg/hooks"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "hookrt").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render and flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "hookrt",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a hooks.Observer recording Prometheus metrics.
type Metrics struct {
	eventsTotal    *prometheus.CounterVec
	renderDuration prometheus.Histogram
	flushDuration  prometheus.Histogram
	flushEffects   prometheus.Histogram
	effectErrors   *prometheus.CounterVec
	mounted        prometheus.Gauge
}

var _ hooks.Observer = (*Metrics)(nil)

// Prometheus creates an observer that registers and records runtime metrics.
// Registering twice on the same registry panics, as with promauto.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of hook runtime events by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "FlushEffects duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushEffects: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_effects",
			Help:        "Effect setups and cleanups run per FlushEffects call",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		effectErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_errors_total",
			Help:        "Total number of effect panics by phase",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		mounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_instances",
			Help:        "Number of currently mounted instances",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Observe implements hooks.Observer.
func (m *Metrics) Observe(ev hooks.Event) {
	m.eventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	switch ev.Kind {
	case hooks.EventMount:
		m.mounted.Inc()
	case hooks.EventUnmount:
		m.mounted.Dec()
	case hooks.EventRender:
		m.renderDuration.Observe(ev.Duration.Seconds())
	case hooks.EventFlushEnd:
		m.flushDuration.Observe(ev.Duration.Seconds())
		m.flushEffects.Observe(float64(ev.Count))
	case hooks.EventEffectError:
		m.effectErrors.WithLabelValues(phaseOf(ev.Err)).Inc()
	}
}

func phaseOf(err error) string {
	var ee *hooks.EffectError
	if errors.As(err, &ee) {
		return ee.Phase
	}
	return "unknown"
}
