package engine

import (
	"testing"

	"github.com/weft-ui/weft/pkg/vdom"
)

func TestDeletionRemovesExactlyOne(t *testing.T) {
	e, ops, _, root := newTestEngine(t)

	build := func(n int) *vdom.VNode {
		kids := make([]*vdom.VNode, n)
		for i := range kids {
			kids[i] = vdom.H(vdom.Host("item"), vdom.Props{"n": i},
				vdom.H(vdom.Host("leaf"), nil))
		}
		return vdom.H(vdom.Host("app"), nil, kids...)
	}

	mustRender(t, e, build(3), root)

	ops.reset()
	mustRender(t, e, build(2), root)

	if got := ops.counts["remove"]; got != 1 {
		t.Errorf("remove = %d, want 1 (the subtree root, not its leaf)", got)
	}
	if got := len(root.Children[0].Children); got != 2 {
		t.Errorf("children = %d, want 2", got)
	}
}

func TestReplacementIsPlacementPlusDeletion(t *testing.T) {
	e, ops, _, root := newTestEngine(t)

	mustRender(t, e, vdom.H(vdom.Host("app"), nil,
		vdom.H(vdom.Host("alpha"), vdom.Props{"x": 1})), root)
	old := root.Children[0].Children[0]

	ops.reset()
	mustRender(t, e, vdom.H(vdom.Host("app"), nil,
		vdom.H(vdom.Host("beta"), vdom.Props{"x": 1})), root)

	if got := ops.counts["remove"]; got != 1 {
		t.Errorf("remove = %d, want 1", got)
	}
	if got := ops.counts["create"]; got != 1 {
		t.Errorf("create = %d, want 1", got)
	}
	if got := ops.counts["insert"]; got != 1 {
		t.Errorf("insert = %d, want 1", got)
	}
	neu := root.Children[0].Children[0]
	if neu == old {
		t.Error("replacement reused the old node")
	}
	if neu.Tag != "beta" {
		t.Errorf("tag = %q, want beta", neu.Tag)
	}
}

func TestComponentReplacementByIdentity(t *testing.T) {
	e, ops, _, root := newTestEngine(t)

	a := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		return vdom.H(vdom.Host("panel"), vdom.Props{"from": "a"})
	})
	b := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		return vdom.H(vdom.Host("panel"), vdom.Props{"from": "b"})
	})

	mustRender(t, e, vdom.H(vdom.Host("app"), nil, vdom.H(a, nil)), root)

	ops.reset()
	mustRender(t, e, vdom.H(vdom.Host("app"), nil, vdom.H(b, nil)), root)

	// Different component functions never update in place.
	if got := ops.counts["remove"]; got != 1 {
		t.Errorf("remove = %d, want 1", got)
	}
	if got := ops.counts["create"]; got != 1 {
		t.Errorf("create = %d, want 1", got)
	}
	if got := root.Children[0].Children[0].Attrs["from"]; got != "b" {
		t.Errorf("from = %v, want b", got)
	}
}

func TestPropsDiffPhaseOrder(t *testing.T) {
	e, ops, _, root := newTestEngine(t)

	mustRender(t, e, vdom.H(vdom.Host("app"), vdom.Props{
		"gone":    "x",
		"onPress": func() {},
	}), root)

	ops.reset()
	mustRender(t, e, vdom.H(vdom.Host("app"), vdom.Props{
		"fresh":   "y",
		"onPress": func() {},
	}), root)

	// Listener values never compare equal, so the surviving onPress is
	// re-registered; phases run in a fixed order.
	want := []string{"unlisten", "clear_attr", "set_attr", "listen"}
	if len(ops.seq) != len(want) {
		t.Fatalf("ops = %v, want %v", ops.seq, want)
	}
	for i, op := range want {
		if ops.seq[i] != op {
			t.Fatalf("ops[%d] = %s, want %s (full: %v)", i, ops.seq[i], op, ops.seq)
		}
	}
}

func TestListenerSwapTakesEffect(t *testing.T) {
	e, _, _, root := newTestEngine(t)

	hits := map[string]int{}
	build := func(which string) *vdom.VNode {
		return vdom.H(vdom.Host("button"), vdom.Props{
			"onPress": func() { hits[which]++ },
		})
	}

	mustRender(t, e, build("old"), root)
	root.Children[0].Fire("press", nil)

	mustRender(t, e, build("new"), root)
	root.Children[0].Fire("press", nil)

	if hits["old"] != 1 || hits["new"] != 1 {
		t.Fatalf("hits = %v, want old:1 new:1 (stale listener kept?)", hits)
	}
}

func TestComponentDeletionRemovesAllHostChildren(t *testing.T) {
	e, ops, _, root := newTestEngine(t)

	// A component whose host children sit directly under the app dom.
	// Deleting the component must remove every one of them, not just the
	// first.
	pair := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		return vdom.H(vdom.Host("wrap"), nil,
			vdom.H(vdom.Host("left"), nil),
			vdom.H(vdom.Host("right"), nil),
		)
	})
	nested := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		if on, _ := props["on"].(bool); on {
			return vdom.H(pair, nil)
		}
		return nil
	})

	mustRender(t, e, vdom.H(vdom.Host("app"), nil,
		vdom.H(nested, vdom.Props{"on": true})), root)
	if got := len(root.Children[0].Children); got != 1 {
		t.Fatalf("app children = %d, want 1", got)
	}

	ops.reset()
	mustRender(t, e, vdom.H(vdom.Host("app"), nil,
		vdom.H(nested, vdom.Props{"on": false})), root)
	if got := len(root.Children[0].Children); got != 0 {
		t.Fatalf("app children = %d after deletion, want 0", got)
	}
	if got := ops.counts["remove"]; got != 1 {
		t.Errorf("remove = %d, want 1 (wrap carries the subtree)", got)
	}
}

func TestDomlessComponentMultipleHostChildren(t *testing.T) {
	// When a deleted component rendered a component that rendered a host,
	// the deletion walk crosses domless layers to find the doms.
	e, ops, _, root := newTestEngine(t)

	leafComp := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		return vdom.H(vdom.Host("leaf"), nil)
	})
	shell := vdom.Component(func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		return vdom.H(leafComp, nil)
	})

	mustRender(t, e, vdom.H(vdom.Host("app"), nil, vdom.H(shell, nil)), root)
	if got := len(root.Children[0].Children); got != 1 {
		t.Fatalf("app children = %d, want 1", got)
	}

	ops.reset()
	mustRender(t, e, vdom.H(vdom.Host("app"), nil), root)
	if got := ops.counts["remove"]; got != 1 {
		t.Errorf("remove = %d, want 1", got)
	}
	if got := len(root.Children[0].Children); got != 0 {
		t.Fatalf("app children = %d, want 0", got)
	}
}

func TestUpdateKeepsDomIdentity(t *testing.T) {
	e, _, _, root := newTestEngine(t)

	mustRender(t, e, vdom.H(vdom.Host("app"), vdom.Props{"v": 1}), root)
	before := root.Children[0]

	mustRender(t, e, vdom.H(vdom.Host("app"), vdom.Props{"v": 2}), root)
	after := root.Children[0]

	if before != after {
		t.Error("same-type update replaced the node instead of reusing it")
	}
	if after.Attrs["v"] != 2 {
		t.Errorf("v = %v, want 2", after.Attrs["v"])
	}
}
