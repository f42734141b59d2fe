package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/weft-ui/weft/pkg/engine"
	"github.com/weft-ui/weft/pkg/vdom"
)

// Default configuration values.
const (
	DefaultAddr             = ":3000"
	DefaultMaxSessions      = 1000
	DefaultHistoryLimit     = 100
	DefaultResumeWindow     = 5 * time.Minute
	DefaultEventQueue       = 256
	DefaultOutQueue         = 256
	DefaultReadLimit        = 64 * 1024
	DefaultReadTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultPingInterval     = 20 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultSweepInterval    = 30 * time.Second
)

// Config configures a Server. Root is required; every other field has a
// usable zero value filled in by New.
type Config struct {
	// Addr is the listen address for Run.
	Addr string

	// Root is the component rendered as each session's tree.
	Root vdom.ComponentFunc

	// Slice is the engine time slice per session-loop turn.
	// Default: engine.DefaultSlice.
	Slice time.Duration

	// MaxSessions caps live sessions, attached or detached. Zero means
	// DefaultMaxSessions; negative means unlimited.
	MaxSessions int

	// HistoryLimit is how many ops frames each session retains for resume
	// replay.
	HistoryLimit int

	// ResumeWindow is how long a detached session stays resumable before
	// the sweep closes it.
	ResumeWindow time.Duration

	// EventQueue is the per-session buffer for decoded client events.
	EventQueue int

	// ReadLimit is the maximum websocket message size accepted.
	ReadLimit int64

	// ReadTimeout bounds the wait for any client message; the ping cycle
	// keeps a healthy connection inside it.
	ReadTimeout time.Duration

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// PingInterval is how often the server pings an idle client.
	PingInterval time.Duration

	// HandshakeTimeout bounds the wait for the ClientHello after upgrade.
	HandshakeTimeout time.Duration

	// CheckOrigin vets the Origin header on upgrade. Default: same-host
	// only, the gorilla upgrader's behavior.
	CheckOrigin func(r *http.Request) bool

	// Logger receives server and session logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records server Prometheus metrics when non-nil.
	Metrics *Metrics

	// EngineMetrics is shared by every session's engine when non-nil.
	EngineMetrics *engine.Metrics
}

// withDefaults returns cfg with zero fields replaced by defaults.
func (cfg Config) withDefaults() Config {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Slice <= 0 {
		cfg.Slice = engine.DefaultSlice
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.ResumeWindow <= 0 {
		cfg.ResumeWindow = DefaultResumeWindow
	}
	if cfg.EventQueue <= 0 {
		cfg.EventQueue = DefaultEventQueue
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
