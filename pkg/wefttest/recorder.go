package wefttest

import (
	"github.com/weft-ui/weft/pkg/renderer"
)

// Call is one recorded renderer invocation.
type Call struct {
	Op     string // "create", "insert", "remove", "set_attr", "clear_attr", "listen", "unlisten"
	Tag    string // create
	Key    string // set_attr, clear_attr
	Value  any    // set_attr
	Event  string // listen, unlisten
	Node   renderer.Handle
	Parent renderer.Handle
}

// RecordingRenderer wraps a real backend, logging every call before
// delegating. A configured failure replaces the delegate's result for one
// op kind, for fail-fast commit tests.
type RecordingRenderer struct {
	inner   renderer.Renderer
	calls   []Call
	failOn  string
	failErr error
}

// NewRecorder wraps inner.
func NewRecorder(inner renderer.Renderer) *RecordingRenderer {
	return &RecordingRenderer{inner: inner}
}

// Calls returns the recorded calls since the last Reset.
func (r *RecordingRenderer) Calls() []Call { return r.calls }

// Ops returns just the op names, in call order.
func (r *RecordingRenderer) Ops() []string {
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// CountOp returns how many calls of op were recorded.
func (r *RecordingRenderer) CountOp(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (r *RecordingRenderer) Reset() { r.calls = nil }

// FailOn makes every subsequent call of op return err instead of reaching
// the backend. An empty op clears the injection.
func (r *RecordingRenderer) FailOn(op string, err error) {
	r.failOn = op
	r.failErr = err
}

func (r *RecordingRenderer) record(c Call) error {
	r.calls = append(r.calls, c)
	if r.failOn != "" && r.failOn == c.Op {
		return r.failErr
	}
	return nil
}

// CreateElement implements renderer.Renderer.
func (r *RecordingRenderer) CreateElement(tag string) (renderer.Handle, error) {
	if err := r.record(Call{Op: "create", Tag: tag}); err != nil {
		return nil, err
	}
	return r.inner.CreateElement(tag)
}

// Insert implements renderer.Renderer.
func (r *RecordingRenderer) Insert(node, parent, anchor renderer.Handle) error {
	if err := r.record(Call{Op: "insert", Node: node, Parent: parent}); err != nil {
		return err
	}
	return r.inner.Insert(node, parent, anchor)
}

// Remove implements renderer.Renderer.
func (r *RecordingRenderer) Remove(node, parent renderer.Handle) error {
	if err := r.record(Call{Op: "remove", Node: node, Parent: parent}); err != nil {
		return err
	}
	return r.inner.Remove(node, parent)
}

// SetAttribute implements renderer.Renderer.
func (r *RecordingRenderer) SetAttribute(node renderer.Handle, key string, value any) error {
	if err := r.record(Call{Op: "set_attr", Node: node, Key: key, Value: value}); err != nil {
		return err
	}
	return r.inner.SetAttribute(node, key, value)
}

// ClearAttribute implements renderer.Renderer.
func (r *RecordingRenderer) ClearAttribute(node renderer.Handle, key string, value any) error {
	if err := r.record(Call{Op: "clear_attr", Node: node, Key: key, Value: value}); err != nil {
		return err
	}
	return r.inner.ClearAttribute(node, key, value)
}

// AddEventListener implements renderer.Renderer.
func (r *RecordingRenderer) AddEventListener(node renderer.Handle, event string, listener any) error {
	if err := r.record(Call{Op: "listen", Node: node, Event: event}); err != nil {
		return err
	}
	return r.inner.AddEventListener(node, event, listener)
}

// RemoveEventListener implements renderer.Renderer.
func (r *RecordingRenderer) RemoveEventListener(node renderer.Handle, event string, listener any) error {
	if err := r.record(Call{Op: "unlisten", Node: node, Event: event}); err != nil {
		return err
	}
	return r.inner.RemoveEventListener(node, event, listener)
}
