package engine

import (
	"github.com/weft-ui/weft/pkg/renderer"
	"github.com/weft-ui/weft/pkg/vdom"
)

// effectTag marks what the commit phase must do for a fiber.
type effectTag uint8

const (
	noEffect  effectTag = iota
	placement           // new node, create and insert its dom
	update              // same type as before, diff props on the reused dom
	deletion            // old node with no counterpart, remove its dom subtree
)

// String returns the string representation of the effectTag.
func (t effectTag) String() string {
	switch t {
	case noEffect:
		return "None"
	case placement:
		return "Placement"
	case update:
		return "Update"
	case deletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// fiber is the engine's mutable bookkeeping for one tree position in one
// generation. Fibers form a first-child/next-sibling tree; alternate points
// at the same position in the previously committed generation and is severed
// at commit.
type fiber struct {
	typ      vdom.NodeType
	props    vdom.Props
	key      string
	elements []*vdom.VNode // child descriptions pending reconciliation

	dom renderer.Handle // backend handle; nil for component fibers

	parent    *fiber
	child     *fiber
	sibling   *fiber
	alternate *fiber

	effect effectTag
	hooks  []*hook // component fibers only, in call order
}

// domParent returns the handle of the nearest ancestor that owns a dom.
// The root fiber always carries the mount container, so this terminates.
func (f *fiber) domParent() renderer.Handle {
	for p := f.parent; p != nil; p = p.parent {
		if p.dom != nil {
			return p.dom
		}
	}
	return nil
}
