package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures server Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures server metrics.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the server's Prometheus metrics. A nil *Metrics is valid
// and records nothing.
//
// Metrics collected:
//   - weft_server_sessions_active: Gauge of live sessions
//   - weft_server_sessions_total: Counter of sessions created
//   - weft_server_resumes_total: Counter of resume attempts by outcome
//   - weft_server_frames_sent_total: Counter of frames written
//   - weft_server_frames_received_total: Counter of frames read
//   - weft_server_bytes_sent_total: Counter of bytes written
//   - weft_server_bytes_received_total: Counter of bytes read
//   - weft_server_events_total: Counter of client events dispatched
type Metrics struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	resumes        *prometheus.CounterVec
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	events         prometheus.Counter
}

// NewMetrics registers and returns server metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "weft",
		Subsystem: "server",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_active",
			Help:        "Number of live sessions, attached or detached",
			ConstLabels: config.ConstLabels,
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_total",
			Help:        "Total sessions created",
			ConstLabels: config.ConstLabels,
		}),

		resumes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resumes_total",
			Help:        "Total session resume attempts, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total protocol frames written to clients",
			ConstLabels: config.ConstLabels,
		}),

		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_received_total",
			Help:        "Total protocol frames read from clients",
			ConstLabels: config.ConstLabels,
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_sent_total",
			Help:        "Total bytes written to clients",
			ConstLabels: config.ConstLabels,
		}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_received_total",
			Help:        "Total bytes read from clients",
			ConstLabels: config.ConstLabels,
		}),

		events: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total client events dispatched to listeners",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.sessionsActive.Inc()
		m.sessionsTotal.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.sessionsActive.Dec()
	}
}

func (m *Metrics) recordResume(outcome string) {
	if m != nil {
		m.resumes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) recordSent(bytes int) {
	if m != nil {
		m.framesSent.Inc()
		m.bytesSent.Add(float64(bytes))
	}
}

func (m *Metrics) recordReceived(bytes int) {
	if m != nil {
		m.framesReceived.Inc()
		m.bytesReceived.Add(float64(bytes))
	}
}

func (m *Metrics) recordEvent() {
	if m != nil {
		m.events.Inc()
	}
}
