package engine

import "github.com/weft-ui/weft/pkg/vdom"

// hook is one state slot on a component fiber. state is the value after
// folding; queue holds updaters enqueued since, to be folded by the next
// render that reads this slot through its alternate.
type hook struct {
	state any
	queue []vdom.Updater
}

// hookFrame is the vdom.Hooks implementation handed to a component for one
// render call. It walks the fiber's hook slots in call order and checks
// them against the previous generation.
//
// Setters created by a frame bind the slot of the render that created them.
// Listeners are re-registered on every committed render, so setters reaching
// the outside world through the renderer always belong to the latest
// committed generation.
type hookFrame struct {
	engine *Engine
	fiber  *fiber
	index  int
	err    error
}

// UseState implements vdom.Hooks.
func (hf *hookFrame) UseState(seed any) (any, vdom.SetState) {
	if hf.err != nil {
		return seed, func(vdom.Updater) {}
	}

	var alt *hook
	if prev := hf.fiber.alternate; prev != nil {
		if hf.index >= len(prev.hooks) {
			hf.err = &HookOrderError{
				Component: hf.fiber.typ.String(),
				Prev:      len(prev.hooks),
				Got:       hf.index + 1,
			}
			return seed, func(vdom.Updater) {}
		}
		alt = prev.hooks[hf.index]
	}

	h := &hook{state: seed}
	if alt != nil {
		// Fold pending writes left to right against the previous value.
		// The fold does not consume the queue: a superseded pass may fold
		// the same alternate again, and the old generation is dropped as a
		// whole at commit.
		h.state = alt.state
		for _, up := range alt.queue {
			h.state = up(h.state)
		}
	}
	hf.fiber.hooks = append(hf.fiber.hooks, h)
	hf.index++

	e := hf.engine
	set := func(up vdom.Updater) {
		if up == nil {
			return
		}
		h.queue = append(h.queue, up)
		e.requestRender()
	}
	return h.state, set
}

// finish validates that the component used every slot its previous render
// did. Called after the component function returns.
func (hf *hookFrame) finish() error {
	if hf.err != nil {
		return hf.err
	}
	if prev := hf.fiber.alternate; prev != nil && hf.index < len(prev.hooks) {
		return &HookOrderError{
			Component: hf.fiber.typ.String(),
			Prev:      len(prev.hooks),
			Got:       hf.index,
		}
	}
	return nil
}
