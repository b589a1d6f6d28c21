package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for run and flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
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
		Namespace: "reactor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that records Prometheus metrics.
type Metrics struct {
	effectRuns     *prometheus.CounterVec
	effectDuration *prometheus.HistogramVec
	effectDeps     prometheus.Histogram
	triggers       *prometheus.CounterVec
	triggerEffects *prometheus.CounterVec
	flushes        *prometheus.CounterVec
	flushJobs      prometheus.Histogram
	flushDropped   prometheus.Counter
	flushDuration  prometheus.Histogram
}

// NewMetrics creates the metrics observer and registers its collectors.
// It panics if the collectors are already registered with the registry, as
// promauto does.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := instrument.NewMetrics(instrument.WithRegistry(reg))
//	rt := reactive.NewRuntime(reactive.WithObserver(m))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"name", "status"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"name"}),

		effectDeps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_deps",
			Help:        "Number of dependencies collected by an effect run",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),

		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total number of triggers that reached a dependency map",
			ConstLabels: config.ConstLabels,
		}, []string{"target", "op"}),

		triggerEffects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trigger_effects_total",
			Help:        "Effects reached by triggers, by dispatch mode",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of job queue flushes",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		flushJobs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_jobs",
			Help:        "Jobs run per job queue flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		flushDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_dropped_total",
			Help:        "Jobs dropped after exceeding the recursion limit",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Job queue flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// EffectRan records one effect run.
func (m *Metrics) EffectRan(r reactive.EffectRun) {
	name := effectLabel(r.Name)
	status := "ok"
	if r.Panicked {
		status = "panic"
	}
	m.effectRuns.WithLabelValues(name, status).Inc()
	m.effectDuration.WithLabelValues(name).Observe(r.Duration.Seconds())
	m.effectDeps.Observe(float64(r.Deps))
}

// Triggered records one trigger.
func (m *Metrics) Triggered(t reactive.TriggerInfo) {
	m.triggers.WithLabelValues(t.Target, t.Op.String()).Inc()
	if t.Ran > 0 {
		m.triggerEffects.WithLabelValues("sync").Add(float64(t.Ran))
	}
	if t.Scheduled > 0 {
		m.triggerEffects.WithLabelValues("scheduled").Add(float64(t.Scheduled))
	}
}

// Flushed records one job queue flush.
func (m *Metrics) Flushed(f reactive.FlushInfo) {
	status := "ok"
	if f.Panicked {
		status = "panic"
	}
	m.flushes.WithLabelValues(status).Inc()
	m.flushJobs.Observe(float64(f.Jobs))
	m.flushDropped.Add(float64(f.Dropped))
	m.flushDuration.Observe(f.Duration.Seconds())
}

// effectLabel keeps unnamed effects under one label value.
func effectLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
