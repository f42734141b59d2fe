package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager is the registry of live sessions. It enforces the session cap,
// sweeps detached sessions that outlive the resume window, and drains
// everything on shutdown.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	sweepDone chan struct{}
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewManager returns a Manager and starts its sweep goroutine.
func NewManager(cfg Config, logger *slog.Logger, metrics *Metrics) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		logger:    logger.With("component", "session_manager"),
		metrics:   metrics,
		sweepDone: make(chan struct{}),
		stopSweep: make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Create registers a fresh session. It fails with ErrTooManySessions at
// the cap.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s, err := newSession(m.cfg, m.logger, m.metrics)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	s.onClose = m.forget
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.sessionOpened()
	m.logger.Info("session created", "session_id", s.ID, "sessions", count)
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// forget drops a closed session from the registry. Installed as the
// session's onClose callback.
func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
}

// sweepLoop closes detached sessions whose resume window has passed.
func (m *Manager) sweepLoop() {
	defer close(m.sweepDone)
	ticker := time.NewTicker(DefaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now())
		case <-m.stopSweep:
			return
		}
	}
}

// sweep closes every detached session past the resume window.
func (m *Manager) sweep(now time.Time) {
	m.mu.RLock()
	var expired []*Session
	for _, s := range m.sessions {
		if s.expired(now, m.cfg.ResumeWindow) {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		m.logger.Info("session expired", "session_id", s.ID)
		s.Close()
	}
}

// Shutdown closes every session and stops the sweep. It returns once the
// registry is drained or ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopSweep) })

	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if m.Count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
