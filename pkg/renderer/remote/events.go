package remote

import "fmt"

// Handler is a remote event callback. value carries the event's wire
// payload: input text, a checkbox state, "" for value-less events like
// click.
type Handler func(value string)

// coerce widens the listener shapes components put in props.
func coerce(listener any) (Handler, bool) {
	switch fn := listener.(type) {
	case Handler:
		return fn, true
	case func(string):
		return fn, true
	case func():
		return func(string) { fn() }, true
	}
	return nil, false
}

// Dispatch routes a decoded client event to the handler registered for its
// node. Unknown handles and unregistered events are errors so the session
// can report them; both race legitimately with in-flight commits (the
// client fires against a tree the server has already mutated), so callers
// normally log and move on rather than kill the session.
func (r *Renderer) Dispatch(node uint64, event, value string) error {
	n, ok := r.nodes[node]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, node)
	}
	h, ok := n.listeners[event]
	if !ok {
		return fmt.Errorf("%w: %q on node %d", ErrNoListener, event, node)
	}
	h(value)
	return nil
}
