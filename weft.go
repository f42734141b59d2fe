// Package weft provides the public API for the weft reconciliation engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/weft-ui/weft"
//
// Usage:
//
//	func Counter(h weft.Hooks, _ weft.Props) *weft.VNode {
//		count, setCount := weft.UseState(h, 0)
//		return weft.H(weft.Host("button"), weft.Props{
//			"text":    fmt.Sprintf("clicked %d times", count),
//			"onClick": func() { setCount(func(n int) int { return n + 1 }) },
//		})
//	}
//
// Trees built with H are reconciled by pkg/engine against any backend
// implementing pkg/renderer.Renderer, or hosted over websockets by
// pkg/server.
package weft

import (
	"github.com/weft-ui/weft/pkg/vdom"
)

// Core tree types, re-exported so applications only import one package.
type (
	// VNode is one node of a declarative tree description.
	VNode = vdom.VNode

	// Props carries a node's attributes, event handlers and key.
	Props = vdom.Props

	// NodeType identifies what a node renders as.
	NodeType = vdom.NodeType

	// Hooks is the per-instance state accessor passed to components.
	Hooks = vdom.Hooks

	// ComponentFunc describes a subtree from props and hook state.
	ComponentFunc = vdom.ComponentFunc
)

// KeyProp is the reserved prop naming a child's stable identity.
const KeyProp = vdom.KeyProp

// H builds a node of the given type with props and children.
// Nil children are skipped.
func H(t NodeType, props Props, children ...*VNode) *VNode {
	return vdom.H(t, props, children...)
}

// Host returns the node type for a backend element with the given tag.
func Host(tag string) NodeType { return vdom.Host(tag) }

// Component returns the node type for a component function.
func Component(fn ComponentFunc) NodeType { return vdom.Component(fn) }

// UseState declares a typed state cell on the calling component.
// It returns the current value and a setter that schedules a re-render
// with the value produced by applying update to the previous value.
//
// The setter is safe to call from event handlers and from outside the
// render; updates queued during one render pass are folded in order.
func UseState[T any](h Hooks, seed T) (T, func(update func(T) T)) {
	v, set := h.UseState(seed)
	setter := func(update func(T) T) {
		set(func(prev any) any { return update(prev.(T)) })
	}
	return v.(T), setter
}
