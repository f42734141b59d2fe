// Package wefttest is the test harness for weft trees. It pairs a
// synchronous engine with a recording renderer so a test can render, fire
// events, and assert on exactly the mutations the engine issued.
//
// Example:
//
//	h := wefttest.New(t)
//	h.Render(vdom.H(vdom.Host("panel"), vdom.Props{"title": "hi"}))
//	h.ExpectOps("insert", 1)
//	h.ExpectAttr("panel", "title", "hi")
package wefttest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/weft-ui/weft/pkg/engine"
	"github.com/weft-ui/weft/pkg/renderer/treerender"
	"github.com/weft-ui/weft/pkg/vdom"
)

// Harness bundles an engine, a recording renderer, and a mounted root for
// one test. Rendering is synchronous: Render returns after the commit.
type Harness struct {
	t *testing.T

	// Engine drives the tree. Exposed for tests that need supersede or
	// scheduling behavior beyond Render.
	Engine *engine.Engine

	// Recorder sits between the engine and the tree and keeps the call log.
	Recorder *RecordingRenderer

	// Root is the mounted container node.
	Root *treerender.Node
}

// New returns a harness with a fresh engine mounted on an empty container.
func New(t *testing.T) *Harness {
	t.Helper()

	tree := treerender.New()
	rec := NewRecorder(tree)
	root := tree.NewRoot("root")

	eng, err := engine.New(engine.Config{
		Renderer:  rec,
		Scheduler: engine.SyncScheduler{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("wefttest: engine.New: %v", err)
	}

	return &Harness{t: t, Engine: eng, Recorder: rec, Root: root}
}

// Render renders el into the harness root and fails the test if the pass
// does not commit cleanly.
func (h *Harness) Render(el *vdom.VNode) {
	h.t.Helper()
	if err := h.TryRender(el); err != nil {
		h.t.Fatalf("wefttest: render: %v", err)
	}
}

// TryRender renders el and returns the pass error, for tests that expect
// one.
func (h *Harness) TryRender(el *vdom.VNode) error {
	h.t.Helper()
	var rendErr error
	h.Engine.Render(el, h.Root, func(err error) { rendErr = err })
	return rendErr
}

// HTML returns an escaped dump of the committed tree.
func (h *Harness) HTML() string {
	return treerender.HTML(h.Root)
}

// Find returns the first committed node with the given tag, in pre-order,
// or nil.
func (h *Harness) Find(tag string) *treerender.Node {
	return find(h.Root, tag)
}

func find(n *treerender.Node, tag string) *treerender.Node {
	if n.Tag == tag {
		return n
	}
	for _, c := range n.Children {
		if hit := find(c, tag); hit != nil {
			return hit
		}
	}
	return nil
}

// Fire invokes the listener for event on the first node with the given
// tag, failing the test when no such listener is registered. With the
// synchronous scheduler, any re-render the listener triggers has committed
// by the time Fire returns.
func (h *Harness) Fire(tag, event string, payload any) {
	h.t.Helper()
	n := h.Find(tag)
	if n == nil {
		h.t.Fatalf("wefttest: no committed node with tag %q", tag)
	}
	if !n.Fire(event, payload) {
		h.t.Fatalf("wefttest: node %q has no %q listener", tag, event)
	}
}

// ExpectOps fails the test unless exactly want calls of op were recorded
// since the last Reset.
func (h *Harness) ExpectOps(op string, want int) {
	h.t.Helper()
	if got := h.Recorder.CountOp(op); got != want {
		h.t.Errorf("wefttest: %s ops = %d, want %d\nops: %v", op, got, want, h.Recorder.Ops())
	}
}

// ExpectAttr fails the test unless the first node with the given tag
// carries the attribute value.
func (h *Harness) ExpectAttr(tag, key string, want any) {
	h.t.Helper()
	n := h.Find(tag)
	if n == nil {
		h.t.Fatalf("wefttest: no committed node with tag %q", tag)
	}
	if got := n.Attrs[key]; !vdom.PropsEqual(got, want) {
		h.t.Errorf("wefttest: %s[%q] = %v, want %v", tag, key, got, want)
	}
}
