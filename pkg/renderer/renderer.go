// Package renderer defines the interface the weft engine drives a concrete
// tree backend through.
//
// The engine computes what should change; a Renderer is the only thing that
// touches real nodes. Backends range from in-memory trees for tests
// (treerender) to wire-protocol emitters for remote clients (remote). The
// engine holds node references only as opaque Handles and never inspects
// them.
//
// Renderer calls happen exclusively during the engine's commit phase, on the
// engine's goroutine, in tree order: a node's CreateElement and Insert always
// precede any call naming it as a parent.
package renderer

import (
	"errors"
	"fmt"
)

// Handle is an opaque reference to a node owned by a Renderer backend.
type Handle any

// Renderer materializes engine mutations. Implementations report failures
// through errors; any error aborts the commit that issued the call.
type Renderer interface {
	// CreateElement materializes a new detached node for tag. Unrecognized
	// tags fail with an error matching ErrUnknownElement.
	CreateElement(tag string) (Handle, error)

	// Insert attaches node under parent. A nil anchor appends; a non-nil
	// anchor places node immediately before it.
	Insert(node, parent, anchor Handle) error

	// Remove detaches node (and implicitly its subtree) from parent.
	Remove(node, parent Handle) error

	// SetAttribute sets a plain attribute.
	SetAttribute(node Handle, key string, value any) error

	// ClearAttribute removes a plain attribute. The old value is passed so
	// backends that need it for unregistration have it.
	ClearAttribute(node Handle, key string, value any) error

	// AddEventListener registers listener for event on node. What a
	// listener is (and how events fire) is backend-defined, but backends
	// must not invoke it from inside this call.
	AddEventListener(node Handle, event string, listener any) error

	// RemoveEventListener unregisters listener for event on node.
	RemoveEventListener(node Handle, event string, listener any) error
}

// ErrUnknownElement reports a CreateElement tag the backend does not
// recognize. This is a configuration error: the engine surfaces it
// immediately and does not retry.
var ErrUnknownElement = errors.New("renderer: unknown element type")

// UnknownElementError carries the offending tag.
type UnknownElementError struct {
	Tag string
}

// Error implements the error interface.
func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("renderer: unknown element type %q", e.Tag)
}

// Is makes the error match ErrUnknownElement with errors.Is.
func (e *UnknownElementError) Is(target error) bool {
	return target == ErrUnknownElement
}
