package vdom

// Updater computes the next state value from the previous one. Updaters are
// queued by SetState and folded, in order, on the component's next render.
type Updater func(prev any) any

// SetState enqueues an updater for one state slot and requests a re-render.
// It is safe to call after the render that created it has finished; that is
// how event listeners drive the tree.
type SetState func(update Updater)

// Hooks is the per-render hook surface handed to a ComponentFunc. It is
// only valid during the render call that received it. Hook calls must be
// unconditional: the same hooks, in the same order, on every render of a
// component.
type Hooks interface {
	// UseState returns the current value of the next state slot, seeding it
	// on first render, together with the setter that updates it.
	UseState(seed any) (any, SetState)
}

// ComponentFunc produces a node description from props. It must be pure
// apart from hook calls: same props and hook state, same description.
// Returning nil renders nothing.
type ComponentFunc func(h Hooks, props Props) *VNode
