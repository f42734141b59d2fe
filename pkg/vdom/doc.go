// Package vdom defines the immutable node descriptions consumed by the
// weft engine.
//
// A VNode describes what one node of the target tree should look like:
// its type, its props, and its ordered children. VNodes carry no identity
// and no backend state; a fresh tree is built on every render and consumed
// by one reconciliation pass. All mutable bookkeeping lives in the engine's
// fibers, and all real tree state lives behind a renderer.
//
// # Node Types
//
// NodeType is a tagged variant with two kinds:
//
//   - Host: an opaque primitive named by a string tag ("window", "div",
//     "row"). The engine attaches no meaning to tags; the renderer decides
//     what they materialize as.
//   - Component: a ComponentFunc invoked during reconciliation to produce
//     the node's single child description.
//
// Host types compare by tag, component types by function identity. Two
// closures made from the same function literal are the same component.
//
// # Construction
//
//	vdom.H(vdom.Host("list"), vdom.Props{"title": "Todos"},
//	    vdom.H(vdom.Host("item"), vdom.Props{"label": "one"}),
//	    vdom.H(vdom.Host("item"), vdom.Props{"label": "two"}),
//	)
//
// Props keys beginning with "on" register event listeners; everything else
// is a plain attribute. A "key" prop is captured onto VNode.Key.
//
// # Components and Hooks
//
// A ComponentFunc receives its hook surface explicitly:
//
//	counter := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
//	    count, setCount := h.UseState(0)
//	    return vdom.H(vdom.Host("button"), vdom.Props{
//	        "label":   count,
//	        "onPress": func() { setCount(func(prev any) any { return prev.(int) + 1 }) },
//	    })
//	})
//
// There is no package-global render context: the Hooks value is only valid
// for the duration of the render call it was passed to.
package vdom
