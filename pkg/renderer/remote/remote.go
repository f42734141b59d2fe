// Package remote is a renderer backend for clients on the far side of a
// wire. Engine mutations are buffered as protocol ops instead of applied
// locally; a session drains the buffer with Flush and frames each batch to
// its client. The backend keeps a mirror of the remote tree so client
// events can be routed back to handlers (Dispatch) and so a reconnecting
// client can be rebuilt from scratch (FullSync).
//
// Handles are uint64 values allocated from 1. Handle 0 is never allocated;
// on the wire it marks an absent anchor. Like every renderer backend, a
// Renderer is confined to the goroutine of the engine driving it.
package remote

import (
	"errors"
	"fmt"

	"github.com/weft-ui/weft/pkg/protocol"
	"github.com/weft-ui/weft/pkg/renderer"
	"github.com/weft-ui/weft/pkg/vdom"
)

var (
	// ErrUnknownNode reports an operation naming a handle the mirror does
	// not hold.
	ErrUnknownNode = errors.New("remote: unknown node handle")

	// ErrNoListener reports a dispatched event with no registered handler.
	ErrNoListener = errors.New("remote: no listener for event")

	// ErrBadListener reports a listener value of an unsupported type.
	ErrBadListener = errors.New("remote: unsupported listener type")
)

// rootHandle is the pre-allocated mount container. The client creates it on
// its side before the first ops frame arrives, so no Create op is ever
// emitted for it.
const rootHandle uint64 = 1

// node mirrors one remote element. Attribute values are stored in wire form
// (strings) so FullSync replays exactly what the client was sent.
type node struct {
	tag       string
	parent    uint64
	children  []uint64
	attrs     map[string]string
	listeners map[string]Handler
}

// Renderer implements renderer.Renderer by buffering protocol ops.
type Renderer struct {
	nodes map[uint64]*node
	next  uint64
	ops   []protocol.Op
}

// New returns a Renderer with an empty mirror tree.
func New() *Renderer {
	r := &Renderer{
		nodes: make(map[uint64]*node),
		next:  rootHandle + 1,
	}
	r.nodes[rootHandle] = &node{tag: "root", attrs: make(map[string]string)}
	return r
}

// Root returns the mount container handle, for passing to Engine.Render.
func (r *Renderer) Root() renderer.Handle { return rootHandle }

// Flush returns the ops buffered since the previous Flush and clears the
// buffer. The caller owns the returned slice.
func (r *Renderer) Flush() []protocol.Op {
	ops := r.ops
	r.ops = nil
	return ops
}

// Pending returns how many ops are buffered.
func (r *Renderer) Pending() int { return len(r.ops) }

// Nodes returns how many nodes the mirror holds, the root included.
func (r *Renderer) Nodes() int { return len(r.nodes) }

// CreateElement implements renderer.Renderer.
func (r *Renderer) CreateElement(tag string) (renderer.Handle, error) {
	h := r.next
	r.next++
	r.nodes[h] = &node{tag: tag, attrs: make(map[string]string)}
	r.ops = append(r.ops, protocol.NewCreateOp(h, tag))
	return h, nil
}

// Insert implements renderer.Renderer. A nil anchor appends; on the wire
// that is anchor handle 0.
func (r *Renderer) Insert(node, parent, anchor renderer.Handle) error {
	nid, n, err := r.resolve(node, "insert")
	if err != nil {
		return err
	}
	pid, p, err := r.resolve(parent, "insert")
	if err != nil {
		return err
	}
	var aid uint64
	if anchor != nil {
		aid, _, err = r.resolve(anchor, "insert")
		if err != nil {
			return err
		}
	}

	n.parent = pid
	if aid == 0 {
		p.children = append(p.children, nid)
	} else {
		at := -1
		for i, c := range p.children {
			if c == aid {
				at = i
				break
			}
		}
		if at < 0 {
			return fmt.Errorf("remote: insert: anchor %d is not a child of %d", aid, pid)
		}
		p.children = append(p.children[:at], append([]uint64{nid}, p.children[at:]...)...)
	}
	r.ops = append(r.ops, protocol.NewInsertOp(nid, pid, aid))
	return nil
}

// Remove implements renderer.Renderer. The client drops the whole subtree
// on one Remove op, so the mirror forgets the subtree too; its handles are
// never reused.
func (r *Renderer) Remove(node, parent renderer.Handle) error {
	nid, _, err := r.resolve(node, "remove")
	if err != nil {
		return err
	}
	pid, p, err := r.resolve(parent, "remove")
	if err != nil {
		return err
	}
	at := -1
	for i, c := range p.children {
		if c == nid {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("remote: remove: node %d is not a child of %d", nid, pid)
	}
	p.children = append(p.children[:at], p.children[at+1:]...)
	r.drop(nid)
	r.ops = append(r.ops, protocol.NewRemoveOp(nid, pid))
	return nil
}

// SetAttribute implements renderer.Renderer. Values cross the wire as
// strings; see vdom.PropString for the conversion.
func (r *Renderer) SetAttribute(node renderer.Handle, key string, value any) error {
	nid, n, err := r.resolve(node, "set attribute")
	if err != nil {
		return err
	}
	s := vdom.PropString(value)
	n.attrs[key] = s
	r.ops = append(r.ops, protocol.NewSetAttrOp(nid, key, s))
	return nil
}

// ClearAttribute implements renderer.Renderer.
func (r *Renderer) ClearAttribute(node renderer.Handle, key string, value any) error {
	nid, n, err := r.resolve(node, "clear attribute")
	if err != nil {
		return err
	}
	delete(n.attrs, key)
	r.ops = append(r.ops, protocol.NewClearAttrOp(nid, key))
	return nil
}

// AddEventListener implements renderer.Renderer. Supported listener shapes
// are Handler, func(string), and func(); anything else fails the commit. A
// second listener for the same event replaces the first.
func (r *Renderer) AddEventListener(node renderer.Handle, event string, listener any) error {
	nid, n, err := r.resolve(node, "add listener")
	if err != nil {
		return err
	}
	h, ok := coerce(listener)
	if !ok {
		return fmt.Errorf("%w: %T", ErrBadListener, listener)
	}
	if n.listeners == nil {
		n.listeners = make(map[string]Handler)
	}
	n.listeners[event] = h
	r.ops = append(r.ops, protocol.NewListenOp(nid, event))
	return nil
}

// RemoveEventListener implements renderer.Renderer.
func (r *Renderer) RemoveEventListener(node renderer.Handle, event string, listener any) error {
	nid, n, err := r.resolve(node, "remove listener")
	if err != nil {
		return err
	}
	delete(n.listeners, event)
	r.ops = append(r.ops, protocol.NewUnlistenOp(nid, event))
	return nil
}

// resolve asserts a Handle to a live mirror node.
func (r *Renderer) resolve(h renderer.Handle, op string) (uint64, *node, error) {
	id, ok := h.(uint64)
	if !ok {
		return 0, nil, fmt.Errorf("remote: %s: handle is %T, not uint64", op, h)
	}
	n, ok := r.nodes[id]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s: %d", ErrUnknownNode, op, id)
	}
	return id, n, nil
}

// drop forgets a subtree.
func (r *Renderer) drop(id uint64) {
	n, ok := r.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		r.drop(c)
	}
	delete(r.nodes, id)
}
