// Package treerender is an in-memory renderer backend. It materializes the
// engine's mutations as a plain tree of Nodes, which makes it the backend of
// choice for tests, benchmarks, and snapshot dumps.
package treerender

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weft-ui/weft/pkg/renderer"
	"github.com/weft-ui/weft/pkg/vdom"
)

// Node is one materialized tree node. Fields are exported for assertions;
// treat them as read-only outside the renderer.
type Node struct {
	Tag       string
	Attrs     map[string]any
	Children  []*Node
	Listeners map[string]any // event type -> listener
}

// Fire invokes the listener registered for event, if any. Listeners of type
// func() and func(any) are supported; payload is passed to the latter.
// It reports whether a listener ran.
func (n *Node) Fire(event string, payload any) bool {
	l, ok := n.Listeners[event]
	if !ok {
		return false
	}
	switch fn := l.(type) {
	case func():
		fn()
		return true
	case func(any):
		fn(payload)
		return true
	}
	return false
}

// Renderer implements renderer.Renderer over Node trees. Like the engine
// that drives it, it is confined to a single goroutine.
type Renderer struct {
	allowed map[string]struct{} // nil means every tag is accepted
	created int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAllowedTags restricts CreateElement to the given tags. Anything else
// fails with renderer.ErrUnknownElement.
func WithAllowedTags(tags ...string) Option {
	return func(r *Renderer) {
		r.allowed = make(map[string]struct{}, len(tags))
		for _, t := range tags {
			r.allowed[t] = struct{}{}
		}
	}
}

// New returns a Renderer ready for use.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRoot materializes a detached container node for mounting a tree into.
func (r *Renderer) NewRoot(tag string) *Node {
	r.created++
	return &Node{Tag: tag, Attrs: map[string]any{}}
}

// Created returns how many nodes this renderer has materialized.
func (r *Renderer) Created() int { return r.created }

// CreateElement implements renderer.Renderer.
func (r *Renderer) CreateElement(tag string) (renderer.Handle, error) {
	if r.allowed != nil {
		if _, ok := r.allowed[tag]; !ok {
			return nil, &renderer.UnknownElementError{Tag: tag}
		}
	}
	r.created++
	return &Node{Tag: tag, Attrs: map[string]any{}}, nil
}

// Insert implements renderer.Renderer.
func (r *Renderer) Insert(node, parent, anchor renderer.Handle) error {
	n, p, err := pair(node, parent, "insert")
	if err != nil {
		return err
	}
	if anchor == nil {
		p.Children = append(p.Children, n)
		return nil
	}
	a, ok := anchor.(*Node)
	if !ok {
		return fmt.Errorf("treerender: insert: anchor is %T, not *Node", anchor)
	}
	for i, c := range p.Children {
		if c == a {
			p.Children = append(p.Children[:i], append([]*Node{n}, p.Children[i:]...)...)
			return nil
		}
	}
	return fmt.Errorf("treerender: insert: anchor %q is not a child of %q", a.Tag, p.Tag)
}

// Remove implements renderer.Renderer.
func (r *Renderer) Remove(node, parent renderer.Handle) error {
	n, p, err := pair(node, parent, "remove")
	if err != nil {
		return err
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("treerender: remove: node %q is not a child of %q", n.Tag, p.Tag)
}

// SetAttribute implements renderer.Renderer.
func (r *Renderer) SetAttribute(node renderer.Handle, key string, value any) error {
	n, err := one(node, "set attribute")
	if err != nil {
		return err
	}
	n.Attrs[key] = value
	return nil
}

// ClearAttribute implements renderer.Renderer.
func (r *Renderer) ClearAttribute(node renderer.Handle, key string, value any) error {
	n, err := one(node, "clear attribute")
	if err != nil {
		return err
	}
	delete(n.Attrs, key)
	return nil
}

// AddEventListener implements renderer.Renderer. A second listener for the
// same event replaces the first.
func (r *Renderer) AddEventListener(node renderer.Handle, event string, listener any) error {
	n, err := one(node, "add listener")
	if err != nil {
		return err
	}
	if n.Listeners == nil {
		n.Listeners = make(map[string]any)
	}
	n.Listeners[event] = listener
	return nil
}

// RemoveEventListener implements renderer.Renderer.
func (r *Renderer) RemoveEventListener(node renderer.Handle, event string, listener any) error {
	n, err := one(node, "remove listener")
	if err != nil {
		return err
	}
	delete(n.Listeners, event)
	return nil
}

func one(h renderer.Handle, op string) (*Node, error) {
	n, ok := h.(*Node)
	if !ok {
		return nil, fmt.Errorf("treerender: %s: handle is %T, not *Node", op, h)
	}
	return n, nil
}

func pair(node, parent renderer.Handle, op string) (*Node, *Node, error) {
	n, err := one(node, op)
	if err != nil {
		return nil, nil, err
	}
	p, err := one(parent, op)
	if err != nil {
		return nil, nil, err
	}
	return n, p, nil
}

// Snapshot returns a deep copy of n, safe to hold across later commits.
func Snapshot(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Tag: n.Tag, Attrs: make(map[string]any, len(n.Attrs))}
	for k, v := range n.Attrs {
		cp.Attrs[k] = v
	}
	if len(n.Listeners) > 0 {
		cp.Listeners = make(map[string]any, len(n.Listeners))
		for k, v := range n.Listeners {
			cp.Listeners[k] = v
		}
	}
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = Snapshot(c)
		}
	}
	return cp
}

// HTML renders the tree as an indented, escaped markup dump. Attributes are
// emitted in sorted order so output is deterministic.
func HTML(n *Node) string {
	var b strings.Builder
	writeHTML(&b, n, 0)
	return b.String()
}

func writeHTML(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(vdom.PropString(n.Attrs[k])))
		b.WriteByte('"')
	}

	if len(n.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.Children {
		writeHTML(b, c, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">\n")
}
