package remote

import (
	"sort"

	"github.com/weft-ui/weft/pkg/protocol"
)

// FullSync returns ops that rebuild the whole mirror on a fresh client: for
// every node under the root, creation, attributes, listener registrations,
// then the insert into its parent, in commit order. The buffered batch is
// untouched. Pair the result with FlagReset so the client clears its tree
// before applying.
func (r *Renderer) FullSync() []protocol.Op {
	root := r.nodes[rootHandle]
	ops := make([]protocol.Op, 0, 4*len(r.nodes))
	for _, c := range root.children {
		ops = r.syncSubtree(c, rootHandle, ops)
	}
	return ops
}

func (r *Renderer) syncSubtree(id, parent uint64, ops []protocol.Op) []protocol.Op {
	n := r.nodes[id]
	ops = append(ops, protocol.NewCreateOp(id, n.tag))
	for _, k := range sortedKeys(n.attrs) {
		ops = append(ops, protocol.NewSetAttrOp(id, k, n.attrs[k]))
	}
	for _, ev := range sortedKeys(n.listeners) {
		ops = append(ops, protocol.NewListenOp(id, ev))
	}
	ops = append(ops, protocol.NewInsertOp(id, parent, 0))
	for _, c := range n.children {
		ops = r.syncSubtree(c, id, ops)
	}
	return ops
}

// sortedKeys keeps replay output deterministic across map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
