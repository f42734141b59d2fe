package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weft-ui/weft/pkg/protocol"
)

// Server hosts one root component for many websocket clients. Each client
// gets its own Session and therefore its own engine and tree.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	sessions *Manager
	upgrader websocket.Upgrader
	router   chi.Router
	http     *http.Server
}

// New returns a Server for cfg. The root component is required.
func New(cfg Config) (*Server, error) {
	if cfg.Root == nil {
		return nil, ErrNoRoot
	}
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "server"),
		sessions: NewManager(cfg, cfg.Logger, cfg.Metrics),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
	s.router = s.routes()
	return s, nil
}

// routes builds the HTTP surface.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.serveIndex)
	r.Get("/client.js", s.serveThinClient)
	r.Get("/live", s.handleLive)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// requestLogger logs completed HTTP requests at debug level. The websocket
// endpoint logs through its session instead.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/live" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// Handler returns the server's HTTP handler, for mounting in an external
// router or an httptest server.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session registry.
func (s *Server) Sessions() *Manager { return s.sessions }

// handleLive upgrades the connection, runs the handshake, and hands the
// socket to a new or resumed session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	hello, err := s.readHello(conn)
	if err != nil {
		s.logger.Warn("handshake failed", "error", err, "remote", conn.RemoteAddr())
		conn.Close()
		return
	}

	if hello.Version.Major != protocol.CurrentVersion.Major {
		s.rejectHandshake(conn, protocol.HandshakeVersionMismatch)
		return
	}

	if hello.SessionID != "" {
		s.resumeSession(conn, hello)
		return
	}
	s.startSession(conn)
}

// readHello reads and decodes the ClientHello that must open every
// connection.
func (s *Server) readHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	conn.SetReadLimit(s.cfg.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, err
	}
	if frame.Type != protocol.FrameHello {
		return nil, &SessionError{Op: "handshake", Err: protocol.ErrInvalidFrame}
	}
	return protocol.DecodeClientHello(frame.Payload)
}

// startSession creates a session for a fresh client and mounts the root.
func (s *Server) startSession(conn *websocket.Conn) {
	sess, err := s.sessions.Create()
	if err != nil {
		status := protocol.HandshakeInternalError
		if err == ErrTooManySessions {
			status = protocol.HandshakeServerBusy
		}
		s.rejectHandshake(conn, status)
		return
	}

	if err := s.writeWelcome(conn, protocol.NewServerHello(sess.ID, sess.Seq()+1)); err != nil {
		s.logger.Error("welcome write failed", "error", err)
		conn.Close()
		sess.Close()
		return
	}

	sess.attach(conn)
	sess.mount()
}

// resumeSession re-attaches a reconnecting client, replaying the frames it
// missed or resetting its tree.
func (s *Server) resumeSession(conn *websocket.Conn, hello *protocol.ClientHello) {
	sess, err := s.sessions.Get(hello.SessionID)
	if err != nil || sess.IsClosed() {
		s.cfg.Metrics.recordResume("expired")
		s.rejectHandshake(conn, protocol.HandshakeSessionExpired)
		return
	}

	if err := s.writeWelcome(conn, protocol.NewServerHello(sess.ID, sess.Seq()+1)); err != nil {
		s.logger.Error("welcome write failed", "error", err)
		conn.Close()
		return
	}

	sess.attach(conn)
	lastSeq := hello.LastSeq
	sess.enqueue(func() { sess.resync(lastSeq) })

	s.cfg.Metrics.recordResume("ok")
	s.logger.Info("session resumed", "session_id", sess.ID, "last_seq", hello.LastSeq)
}

// writeWelcome sends the ServerHello on a connection not yet owned by a
// write loop.
func (s *Server) writeWelcome(conn *websocket.Conn, sh *protocol.ServerHello) error {
	frame := protocol.NewFrame(protocol.FrameWelcome, protocol.EncodeServerHello(sh))
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// rejectHandshake reports a handshake failure and closes the connection.
func (s *Server) rejectHandshake(conn *websocket.Conn, status protocol.HandshakeStatus) {
	s.writeWelcome(conn, protocol.NewServerHelloError(status))
	conn.Close()
	s.logger.Info("handshake rejected", "status", status)
}

// Run serves HTTP on the configured address until ctx is done, then drains
// sessions and shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.sessions.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("session drain incomplete", "error", err)
	}
	return s.http.Shutdown(shutdownCtx)
}

// Shutdown stops a running server out of band.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.sessions.Shutdown(ctx); err != nil {
		return err
	}
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
