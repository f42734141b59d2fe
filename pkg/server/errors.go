package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and server conditions.
var (
	// ErrNoRoot is returned by New when the config names no root component.
	ErrNoRoot = errors.New("server: config has no root component")

	// ErrSessionClosed is returned when an operation targets a closed
	// session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrTooManySessions is returned when the session cap is reached.
	ErrTooManySessions = errors.New("server: too many sessions")

	// ErrEventQueueFull is returned when a client event is dropped because
	// the session's queue is full.
	ErrEventQueueFull = errors.New("server: event queue full")

	// ErrSlowClient is returned when a connection is detached because its
	// outbound queue overflowed.
	ErrSlowClient = errors.New("server: client not keeping up")

	// ErrOpTooLarge is returned when a single renderer op cannot fit in
	// one frame, however the batch is split.
	ErrOpTooLarge = errors.New("server: renderer op exceeds frame capacity")
)

// SessionError wraps an error with the session and operation it came from.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}
