package engine

import "github.com/weft-ui/weft/pkg/vdom"

// reconcileChildren walks the previous generation's children and the new
// child descriptions index-synchronized, building wip's child chain and
// tagging each position.
//
// Matching is positional: a child matches only the previous child at the
// same index, and only when the node types are equal. Keys are carried on
// fibers but not consulted.
func (e *Engine) reconcileChildren(wip *fiber, elements []*vdom.VNode) {
	var oldFiber *fiber
	if wip.alternate != nil {
		oldFiber = wip.alternate.child
	}

	var prevSibling *fiber
	index := 0

	for index < len(elements) || oldFiber != nil {
		var el *vdom.VNode
		if index < len(elements) {
			el = elements[index]
		}

		sameType := el != nil && oldFiber != nil && el.Type.Equal(oldFiber.typ)

		var newFiber *fiber
		if sameType {
			// Same position, same type: keep the dom, diff props at commit.
			newFiber = &fiber{
				typ:       oldFiber.typ,
				props:     el.Props,
				key:       el.Key,
				elements:  el.Children,
				dom:       oldFiber.dom,
				parent:    wip,
				alternate: oldFiber,
				effect:    update,
			}
		} else {
			if el != nil {
				// New or replaced node: dom is created at commit.
				newFiber = &fiber{
					typ:      el.Type,
					props:    el.Props,
					key:      el.Key,
					elements: el.Children,
					parent:   wip,
					effect:   placement,
				}
			}
			if oldFiber != nil {
				oldFiber.effect = deletion
				e.deletions = append(e.deletions, oldFiber)
			}
		}

		if oldFiber != nil {
			oldFiber = oldFiber.sibling
		}

		if index == 0 {
			wip.child = newFiber
		} else if el != nil && prevSibling != nil {
			prevSibling.sibling = newFiber
		}
		if newFiber != nil {
			prevSibling = newFiber
		}
		index++
	}
}
