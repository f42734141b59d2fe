package vdom

import (
	"reflect"
	"runtime"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindHost      Kind = iota // Opaque primitive, named by a string tag
	KindComponent             // Function component
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindHost:
		return "Host"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// KeyProp is the props key captured onto VNode.Key at construction.
const KeyProp = "key"

// NodeType identifies what a VNode describes: a host primitive or a
// component function. Compare with Equal, not ==.
type NodeType struct {
	kind Kind
	tag  string
	fn   ComponentFunc
	fp   uintptr // code pointer of fn, component identity
}

// Host returns the NodeType for the primitive named tag.
func Host(tag string) NodeType {
	return NodeType{kind: KindHost, tag: tag}
}

// Component returns the NodeType for a function component. Identity is the
// function's code pointer, so every call with the same function (or closures
// of the same literal) yields an equal NodeType.
func Component(fn ComponentFunc) NodeType {
	if fn == nil {
		panic("vdom: Component called with nil function")
	}
	return NodeType{
		kind: KindComponent,
		fn:   fn,
		fp:   reflect.ValueOf(fn).Pointer(),
	}
}

// Kind reports whether the type is a host primitive or a component.
func (t NodeType) Kind() Kind { return t.kind }

// Tag returns the primitive tag. Empty for components.
func (t NodeType) Tag() string { return t.tag }

// Fn returns the component function. Nil for host types.
func (t NodeType) Fn() ComponentFunc { return t.fn }

// IsHost reports whether the type names a host primitive.
func (t NodeType) IsHost() bool { return t.kind == KindHost }

// IsComponent reports whether the type is a function component.
func (t NodeType) IsComponent() bool { return t.kind == KindComponent }

// Zero reports whether the type is the zero NodeType.
func (t NodeType) Zero() bool { return t.tag == "" && t.fp == 0 }

// Equal reports whether two node types describe the same thing: hosts
// compare by tag, components by function identity.
func (t NodeType) Equal(o NodeType) bool {
	if t.kind != o.kind {
		return false
	}
	if t.kind == KindHost {
		return t.tag == o.tag
	}
	return t.fp == o.fp
}

// String returns the tag for hosts and the function name for components.
func (t NodeType) String() string {
	if t.kind == KindHost {
		return t.tag
	}
	if f := runtime.FuncForPC(t.fp); f != nil {
		name := f.Name()
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return "component"
}

// VNode is an immutable description of one node in the target tree. It is
// built fresh on every render and consumed by a single reconciliation pass.
type VNode struct {
	Type     NodeType // Host primitive or component
	Props    Props    // Attributes and event listeners
	Children []*VNode // Ordered child descriptions
	Key      string   // Identity hint captured from props; not used for matching
}

// H constructs a VNode. Nil children are skipped, and a string "key" prop is
// captured onto Key. It is the only constructor; VNode values should not be
// mutated after construction.
func H(t NodeType, props Props, children ...*VNode) *VNode {
	n := &VNode{Type: t, Props: props}
	if len(children) > 0 {
		kids := make([]*VNode, 0, len(children))
		for _, c := range children {
			if c != nil {
				kids = append(kids, c)
			}
		}
		n.Children = kids
	}
	if props != nil {
		if k, ok := props[KeyProp].(string); ok {
			n.Key = k
		}
	}
	return n
}
