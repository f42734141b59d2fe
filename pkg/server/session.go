package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weft-ui/weft/pkg/engine"
	"github.com/weft-ui/weft/pkg/protocol"
	"github.com/weft-ui/weft/pkg/renderer/remote"
	"github.com/weft-ui/weft/pkg/vdom"
)

// Session is one client's live tree: an engine, a remote renderer mirroring
// the client, and the history of ops frames already sent.
//
// A session owns a single loop goroutine, and that goroutine owns the
// engine: scheduler slices, client events, and internal tasks all run
// there, which is what keeps the engine lock-free. Connections come and go
// underneath the session; see attach and detach.
type Session struct {
	// ID is the random identifier the client presents to resume.
	ID string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	engine  *engine.Engine
	rend    *remote.Renderer
	history *History

	events chan *protocol.Event
	tasks  chan func()
	done   chan struct{}

	mu         sync.Mutex
	ep         *connEpoch // nil while detached
	seq        uint64     // last ops sequence sent
	detachedAt time.Time
	lastActive time.Time
	closed     bool

	onClose func(*Session)
}

// connEpoch is one websocket connection's lifetime within a session. The
// read and write loops belong to an epoch, not to the session, so a resumed
// session simply starts a new epoch and lets the old one die.
type connEpoch struct {
	conn *websocket.Conn
	out  chan []byte
	stop chan struct{}
	once sync.Once
}

// shutdown ends the epoch: both loops exit and the socket closes.
func (c *connEpoch) shutdown() {
	c.once.Do(func() {
		close(c.stop)
		c.conn.Close()
	})
}

// newSessionID returns a 128-bit random hex identifier.
func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("server: session id entropy: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession builds a detached session and starts its loop. The caller
// attaches a connection and mounts the root afterwards.
func newSession(cfg Config, logger *slog.Logger, metrics *Metrics) (*Session, error) {
	s := &Session{
		ID:        newSessionID(),
		CreatedAt: time.Now(),
		cfg:       cfg,
		metrics:   metrics,
		rend:      remote.New(),
		history:   NewHistory(cfg.HistoryLimit),
		events:    make(chan *protocol.Event, cfg.EventQueue),
		tasks:     make(chan func(), 64),
		done:      make(chan struct{}),
	}
	s.logger = logger.With("session_id", s.ID)
	s.lastActive = s.CreatedAt
	s.detachedAt = s.CreatedAt

	eng, err := engine.New(engine.Config{
		Renderer:  s.rend,
		Scheduler: sessionScheduler{s},
		Logger:    s.logger,
		Metrics:   cfg.EngineMetrics,
	})
	if err != nil {
		return nil, err
	}
	s.engine = eng

	go s.loop()
	return s, nil
}

// sessionScheduler delivers engine slices onto the session loop.
type sessionScheduler struct{ s *Session }

// Schedule implements engine.Scheduler.
func (sc sessionScheduler) Schedule(run func(deadline time.Time)) {
	slice := sc.s.cfg.Slice
	sc.s.enqueue(func() {
		run(time.Now().Add(slice))
	})
}

// enqueue hands fn to the session loop without ever blocking the caller.
// The engine coalesces its schedule requests, so overflow is rare; when it
// happens the send moves to a goroutine rather than stalling or dropping.
func (s *Session) enqueue(fn func()) {
	select {
	case s.tasks <- fn:
		return
	case <-s.done:
		return
	default:
	}
	go func() {
		select {
		case s.tasks <- fn:
		case <-s.done:
		}
	}()
}

// loop is the session's owner goroutine. Every touch of the engine and the
// remote renderer happens here; after each turn any ops the engine
// committed are flushed to the client.
func (s *Session) loop() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.tasks:
			fn()
			s.flush()
		case ev := <-s.events:
			s.dispatch(ev)
			s.flush()
		}
	}
}

// mount renders the root component into the session's tree.
func (s *Session) mount() {
	s.enqueue(func() {
		el := vdom.H(vdom.Component(s.cfg.Root), nil)
		s.engine.Render(el, s.rend.Root(), func(err error) {
			if err != nil {
				s.logger.Error("mount failed", "error", err)
				s.sendError(protocol.NewFatalError(protocol.CodeServerError, "render failed"))
				s.Close()
			}
		})
	})
}

// dispatch routes a client event to its listener. Unknown nodes and
// missing listeners race legitimately with commits the client has not
// applied yet, so they only log.
func (s *Session) dispatch(ev *protocol.Event) {
	err := s.rend.Dispatch(ev.Node, ev.Name, ev.Value)
	switch {
	case err == nil:
		s.metrics.recordEvent()
	case errors.Is(err, remote.ErrUnknownNode), errors.Is(err, remote.ErrNoListener):
		s.logger.Debug("stale event", "node", ev.Node, "event", ev.Name, "error", err)
	default:
		s.logger.Warn("event dispatch failed", "node", ev.Node, "event", ev.Name, "error", err)
	}
}

// flush drains the renderer's op buffer into sequenced ops frames. Each
// payload is recorded in history before the send, so a frame lost to a
// dying connection is still replayable. An op too large for any frame
// ends the session: the client would otherwise receive a corrupt stream.
func (s *Session) flush() {
	ops := s.rend.Flush()
	if len(ops) == 0 {
		return
	}
	batches, err := splitOps(ops)
	if err != nil {
		s.fatal("flush", err)
		return
	}
	for _, batch := range batches {
		s.mu.Lock()
		s.seq++
		seq := s.seq
		s.mu.Unlock()

		payload := protocol.EncodeOps(&protocol.OpsFrame{Seq: seq, Ops: batch})
		s.history.Add(seq, payload)
		s.send(protocol.NewFrame(protocol.FrameOps, payload))
	}
}

// fatal reports an unrecoverable session error to the client and closes.
func (s *Session) fatal(op string, err error) {
	s.logger.Error("fatal session error", "op", op, "error", err)
	s.sendError(protocol.NewFatalError(protocol.CodeServerError, "update too large"))
	s.Close()
}

// splitOps partitions a batch so every encoded frame fits MaxPayloadSize.
// A single op over the budget (an attribute value near the frame cap)
// cannot be split and is rejected with ErrOpTooLarge.
func splitOps(ops []protocol.Op) ([][]protocol.Op, error) {
	// Headroom for the seq and count varints.
	const budget = protocol.MaxPayloadSize - 2*protocol.MaxVarintLen

	var batches [][]protocol.Op
	start, size := 0, 0
	for i, op := range ops {
		n := op.EncodedLen()
		if n > budget {
			return nil, fmt.Errorf("%w: op %d encodes to %d bytes", ErrOpTooLarge, i, n)
		}
		if size+n > budget && i > start {
			batches = append(batches, ops[start:i])
			start, size = i, 0
		}
		size += n
	}
	if start < len(ops) {
		batches = append(batches, ops[start:])
	}
	return batches, nil
}

// resync replays the frames the client missed, or resets its tree when the
// history ring no longer covers the gap. Runs on the session loop.
func (s *Session) resync(lastSeq uint64) {
	if lastSeq >= s.currentSeq() {
		return // client is current
	}
	if frames := s.history.After(lastSeq); frames != nil {
		s.logger.Info("resync replay", "last_seq", lastSeq, "frames", len(frames))
		for _, payload := range frames {
			s.send(protocol.NewFrameWithFlags(protocol.FrameOps, protocol.FlagReplay, payload))
		}
		return
	}
	s.logger.Info("resync reset", "last_seq", lastSeq)
	s.reset()
}

// reset rebuilds the client's tree from the renderer's mirror. The first
// frame carries FlagReset so the client clears everything it holds;
// continuation frames of the same rebuild follow plain.
func (s *Session) reset() {
	batches, err := splitOps(s.rend.FullSync())
	if err != nil {
		s.fatal("reset", err)
		return
	}
	s.history.Clear()

	flags := protocol.FlagReset
	if len(batches) == 0 {
		batches = [][]protocol.Op{nil} // empty tree still needs the clear
	}
	for _, batch := range batches {
		s.mu.Lock()
		s.seq++
		seq := s.seq
		s.mu.Unlock()

		payload := protocol.EncodeOps(&protocol.OpsFrame{Seq: seq, Ops: batch})
		s.history.Add(seq, payload)
		s.send(protocol.NewFrameWithFlags(protocol.FrameOps, flags, payload))
		flags = 0
	}
}

// send queues an encoded frame on the current connection. A detached
// session drops the frame; ops frames are already in history for replay. A
// full outbound queue detaches the connection rather than blocking the
// loop.
func (s *Session) send(f *protocol.Frame) {
	data, err := f.Encode()
	if err != nil {
		// splitOps keeps ops payloads under the cap, so this is a bug,
		// not a client condition. Dropping beats desyncing the wire.
		s.logger.Error("frame encode failed", "type", f.Type, "error", err)
		return
	}
	s.mu.Lock()
	ep := s.ep
	s.mu.Unlock()
	if ep == nil {
		return
	}
	select {
	case ep.out <- data:
	default:
		s.logger.Warn("outbound queue overflow, detaching", "type", f.Type)
		s.detachEpoch(ep, ErrSlowClient)
	}
}

// sendError queues an error frame.
func (s *Session) sendError(em *protocol.ErrorMessage) {
	s.send(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)))
}

// currentSeq returns the last ops sequence assigned.
func (s *Session) currentSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Seq returns the last ops sequence sent to the client.
func (s *Session) Seq() uint64 { return s.currentSeq() }

// Attached reports whether a connection is currently bound.
func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ep != nil
}

// LastActive returns the time of the last client message, or of creation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// expired reports whether a detached session has outlived the resume
// window. Attached sessions never expire.
func (s *Session) expired(now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ep == nil && !s.closed && now.Sub(s.detachedAt) > window
}

// touch records client activity.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// Close ends the session for good: the current connection is told to go
// away, both loops stop, and the manager forgets the ID. Safe to call more
// than once and from any goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ep := s.ep
	s.ep = nil
	s.mu.Unlock()

	if ep != nil {
		payload := protocol.EncodeControl(protocol.NewClose(protocol.CloseNormal, "session closed"))
		frame := protocol.NewFrame(protocol.FrameControl, payload)
		if data, err := frame.Encode(); err == nil {
			select {
			case ep.out <- data:
			default:
			}
		}
		// Give the write loop a moment to drain before the socket dies.
		time.AfterFunc(s.cfg.WriteTimeout, ep.shutdown)
	}
	close(s.done)

	s.logger.Info("session closed", "seq", s.seq)
	if s.onClose != nil {
		s.onClose(s)
	}
	s.metrics.sessionClosed()
}

// IsClosed reports whether Close has run.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
