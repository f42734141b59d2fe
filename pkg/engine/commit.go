package engine

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/weft-ui/weft/pkg/renderer"
	"github.com/weft-ui/weft/pkg/vdom"
)

// commitRoot applies the finished wip generation to the renderer: deletions
// first, then an explicit-stack pre-order walk of the new tree. On success
// wip is promoted to current. The first renderer failure aborts the rest of
// the commit and is returned as-is; nothing is rolled back.
func (e *Engine) commitRoot() error {
	start := time.Now()
	_, span := e.tracer.Start(e.passCtx, "weft.commit")
	defer span.End()

	ops := e.opCount

	for _, d := range e.deletions {
		if err := e.commitDeletion(d); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "deletion failed")
			return err
		}
	}
	span.SetAttributes(attribute.Int("weft.deletions", len(e.deletions)))

	// Pre-order over the first-child/next-sibling tree. Sibling is pushed
	// before child so the child is processed first; stack depth stays
	// bounded by tree depth, not child count.
	stack := make([]*fiber, 0, 64)
	if e.wip.child != nil {
		stack = append(stack, e.wip.child)
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.sibling != nil {
			stack = append(stack, f.sibling)
		}
		if f.child != nil {
			stack = append(stack, f.child)
		}
		if err := e.commitWork(f); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "commit failed")
			return err
		}
	}

	e.deletions = e.deletions[:0]
	e.wip.alternate = nil
	e.current = e.wip
	e.wip = nil

	span.SetAttributes(attribute.Int("weft.ops", e.opCount-ops))
	span.SetStatus(codes.Ok, "")
	e.metrics.recordCommit(time.Since(start))
	return nil
}

// commitWork applies one fiber's effect, then clears the tag and severs the
// alternate link so generations never chain.
func (e *Engine) commitWork(f *fiber) error {
	switch f.effect {
	case placement:
		if f.dom == nil && f.typ.IsHost() {
			dom, err := e.createDom(f)
			if err != nil {
				return err
			}
			f.dom = dom
		}
		if f.dom != nil {
			if err := e.renderer.Insert(f.dom, f.domParent(), nil); err != nil {
				return &OpError{Op: "insert", Tag: f.typ.String(), Err: err}
			}
			e.opCount++
			e.metrics.recordOp("insert")
		}
	case update:
		if f.dom != nil {
			var prev vdom.Props
			if f.alternate != nil {
				prev = f.alternate.props
			}
			if err := e.updateDom(f, prev, f.props); err != nil {
				return err
			}
		}
	}
	f.effect = noEffect
	f.alternate = nil
	return nil
}

// commitDeletion removes the dom subtrees under a deleted fiber. The fiber
// itself may be a domless component, in which case every topmost dom-bearing
// descendant is removed; removing a dom detaches its whole subtree, so the
// walk never descends past one.
func (e *Engine) commitDeletion(d *fiber) error {
	parent := d.domParent()
	stack := []*fiber{d}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.dom != nil {
			if err := e.renderer.Remove(f.dom, parent); err != nil {
				return &OpError{Op: "remove", Tag: f.typ.String(), Err: err}
			}
			e.opCount++
			e.metrics.recordOp("remove")
			continue
		}
		for c := f.child; c != nil; c = c.sibling {
			stack = append(stack, c)
		}
	}
	return nil
}

// createDom materializes a host fiber's node and applies its initial props.
func (e *Engine) createDom(f *fiber) (renderer.Handle, error) {
	dom, err := e.renderer.CreateElement(f.typ.Tag())
	if err != nil {
		return nil, &OpError{Op: "create", Tag: f.typ.Tag(), Err: err}
	}
	e.opCount++
	e.metrics.recordOp("create")
	if err := e.applyProps(dom, f.typ, nil, f.props); err != nil {
		return nil, err
	}
	return dom, nil
}

// updateDom diffs a reused dom's props.
func (e *Engine) updateDom(f *fiber, prev, next vdom.Props) error {
	return e.applyProps(f.dom, f.typ, prev, next)
}

// applyProps reconciles prev props into next on one dom in four phases:
// stale listeners off, vanished attributes cleared, new or changed
// attributes set, new or changed listeners on. Listener values never
// compare equal, so a surviving "on" key is re-registered each update
// rather than risking a stale closure.
func (e *Engine) applyProps(dom renderer.Handle, typ vdom.NodeType, prev, next vdom.Props) error {
	for key, old := range prev {
		event, ok := vdom.EventKey(key)
		if !ok {
			continue
		}
		if nv, exists := next[key]; exists && vdom.PropsEqual(old, nv) {
			continue
		}
		if err := e.renderer.RemoveEventListener(dom, event, old); err != nil {
			return &OpError{Op: "unlisten", Tag: typ.String(), Err: err}
		}
		e.opCount++
		e.metrics.recordOp("unlisten")
	}

	for key, old := range prev {
		if _, ok := vdom.EventKey(key); ok {
			continue
		}
		if _, exists := next[key]; exists {
			continue
		}
		if err := e.renderer.ClearAttribute(dom, key, old); err != nil {
			return &OpError{Op: "clear_attr", Tag: typ.String(), Err: err}
		}
		e.opCount++
		e.metrics.recordOp("clear_attr")
	}

	for key, val := range next {
		if _, ok := vdom.EventKey(key); ok {
			continue
		}
		if old, exists := prev[key]; exists && vdom.PropsEqual(old, val) {
			continue
		}
		if err := e.renderer.SetAttribute(dom, key, val); err != nil {
			return &OpError{Op: "set_attr", Tag: typ.String(), Err: err}
		}
		e.opCount++
		e.metrics.recordOp("set_attr")
	}

	for key, val := range next {
		event, ok := vdom.EventKey(key)
		if !ok {
			continue
		}
		if old, exists := prev[key]; exists && vdom.PropsEqual(old, val) {
			continue
		}
		if err := e.renderer.AddEventListener(dom, event, val); err != nil {
			return &OpError{Op: "listen", Tag: typ.String(), Err: err}
		}
		e.opCount++
		e.metrics.recordOp("listen")
	}
	return nil
}
