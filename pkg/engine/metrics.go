package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures engine Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// CommitBuckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	CommitBuckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures engine metrics.
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

// WithCommitBuckets sets the commit duration histogram buckets.
func WithCommitBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.CommitBuckets = buckets
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
		Namespace:     "weft",
		Subsystem:     "engine",
		CommitBuckets: prometheus.DefBuckets,
		Registry:      prometheus.DefaultRegisterer,
	}
}

// Metrics holds the engine's Prometheus metrics. A nil *Metrics is valid
// and records nothing, so instrumentation stays optional.
//
// Metrics collected:
//   - weft_engine_renders_total: Counter of render passes started
//   - weft_engine_supersedes_total: Counter of in-flight passes replaced
//   - weft_engine_units_total: Counter of fibers processed by the work loop
//   - weft_engine_commits_total: Counter of commits applied
//   - weft_engine_commit_duration_seconds: Histogram of commit duration
//   - weft_engine_renderer_ops_total: Counter of renderer calls by op
//   - weft_engine_errors_total: Counter of failed passes by stage
type Metrics struct {
	renders        prometheus.Counter
	supersedes     prometheus.Counter
	units          prometheus.Counter
	commits        prometheus.Counter
	commitDuration prometheus.Histogram
	ops            *prometheus.CounterVec
	errors         *prometheus.CounterVec
}

// NewMetrics registers and returns engine metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.CommitBuckets == nil {
		config.CommitBuckets = prometheus.DefBuckets
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		renders: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of render passes started",
			ConstLabels: config.ConstLabels,
		}),

		supersedes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "supersedes_total",
			Help:        "Total number of in-flight passes superseded by a newer render",
			ConstLabels: config.ConstLabels,
		}),

		units: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "units_total",
			Help:        "Total number of fibers processed as units of work",
			ConstLabels: config.ConstLabels,
		}),

		commits: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of commits applied to the renderer",
			ConstLabels: config.ConstLabels,
		}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit phase duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.CommitBuckets,
		}),

		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renderer_ops_total",
			Help:        "Total renderer operations issued, by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total failed render passes, by stage",
			ConstLabels: config.ConstLabels,
		}, []string{"stage"}),
	}
}

func (m *Metrics) recordRender() {
	if m != nil {
		m.renders.Inc()
	}
}

func (m *Metrics) recordSupersede() {
	if m != nil {
		m.supersedes.Inc()
	}
}

func (m *Metrics) recordUnits(n int) {
	if m != nil && n > 0 {
		m.units.Add(float64(n))
	}
}

func (m *Metrics) recordCommit(d time.Duration) {
	if m != nil {
		m.commits.Inc()
		m.commitDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) recordOp(op string) {
	if m != nil {
		m.ops.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordError(stage string) {
	if m != nil {
		m.errors.WithLabelValues(stage).Inc()
	}
}
