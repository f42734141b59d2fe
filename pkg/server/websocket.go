package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/weft-ui/weft/pkg/protocol"
)

// attach binds a connection to the session and starts its read and write
// loops. Any previous connection's epoch is shut down first; a client that
// reconnects before its old socket times out simply steals the session.
func (s *Session) attach(conn *websocket.Conn) {
	ep := &connEpoch{
		conn: conn,
		out:  make(chan []byte, DefaultOutQueue),
		stop: make(chan struct{}),
	}

	s.mu.Lock()
	old := s.ep
	s.ep = ep
	s.lastActive = time.Now()
	s.mu.Unlock()

	if old != nil {
		old.shutdown()
	}

	conn.SetReadLimit(s.cfg.ReadLimit)
	go s.readLoop(ep)
	go s.writeLoop(ep)
	s.logger.Info("connection attached", "remote", conn.RemoteAddr())
}

// detachEpoch severs one connection from the session without closing the
// session itself; the engine keeps committing and history keeps growing so
// a resume can catch the client up. A stale epoch (already replaced by a
// newer attach) is just shut down.
func (s *Session) detachEpoch(ep *connEpoch, reason error) {
	s.mu.Lock()
	current := s.ep == ep
	if current {
		s.ep = nil
		s.detachedAt = time.Now()
	}
	closed := s.closed
	s.mu.Unlock()

	ep.shutdown()
	if current && !closed {
		s.logger.Info("connection detached", "reason", reason)
	}
}

// readLoop reads frames from one connection until it dies. Decoded events
// go to the session loop; control traffic is handled here.
func (s *Session) readLoop(ep *connEpoch) {
	for {
		ep.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := ep.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			s.detachEpoch(ep, err)
			return
		}

		s.touch()
		s.metrics.recordReceived(len(msg))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError(protocol.NewError(protocol.CodeBadFrame, "malformed frame"))
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)

		case protocol.FrameControl:
			s.handleControlFrame(ep, frame.Payload)

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.sendError(protocol.NewError(protocol.CodeBadFrame, "unexpected frame type"))
		}
	}
}

// handleEventFrame decodes a client event and queues it for the session
// loop.
func (s *Session) handleEventFrame(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Error("event decode error", "error", err)
		s.sendError(protocol.NewError(protocol.CodeBadEvent, "invalid event"))
		return
	}

	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped", "node", ev.Node, "event", ev.Name,
			"error", ErrEventQueueFull)
		s.sendError(protocol.NewError(protocol.CodeUnknown, "event queue full"))
	}
}

// handleControlFrame answers pings and routes resync requests onto the
// session loop, where they serialize with flushes.
func (s *Session) handleControlFrame(ep *connEpoch, payload []byte) {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			s.send(protocol.NewFrame(protocol.FrameControl,
				protocol.EncodeControl(protocol.NewPong(pp.Timestamp))))
		}

	case protocol.ControlPong:
		s.logger.Debug("pong received")

	case protocol.ControlResyncRequest:
		if rr, ok := data.(*protocol.ResyncRequest); ok {
			lastSeq := rr.LastSeq
			s.enqueue(func() { s.resync(lastSeq) })
		}

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("client closing", "reason", cm.Reason, "message", cm.Message)
		}
		s.Close()
	}
}

// writeLoop owns the connection for writes: queued frames, plus a periodic
// protocol-level ping that keeps a quiet connection inside the client's
// read deadline.
func (s *Session) writeLoop(ep *connEpoch) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-ep.out:
			if err := s.writeConn(ep, data); err != nil {
				return
			}

		case <-ticker.C:
			payload := protocol.EncodeControl(
				protocol.NewPing(uint64(time.Now().UnixMilli())))
			ping := protocol.NewFrame(protocol.FrameControl, payload)
			data, err := ping.Encode()
			if err != nil {
				return
			}
			if err := s.writeConn(ep, data); err != nil {
				return
			}

		case <-ep.stop:
			return

		case <-s.done:
			return
		}
	}
}

// writeConn performs one deadline-bounded write, detaching on failure.
func (s *Session) writeConn(ep *connEpoch, data []byte) error {
	ep.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := ep.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Error("write error", "error", err)
		s.detachEpoch(ep, err)
		return err
	}
	s.metrics.recordSent(len(data))
	return nil
}
