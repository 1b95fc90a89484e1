package semgraph

import "fmt"

// CanonicalKey hashes (opcode, operands, type) into the string key used by
// ValueNumbers, per spec.md §4.2.2.
func CanonicalKey(op string, inputs []NodeId, typeTag int32) string {
	return fmt.Sprintf("%s|%v|%d", op, inputs, typeTag)
}

// ValueNumber records node as the canonical representative for its shape,
// or returns the existing representative if an equivalent node was already
// seen — the hook later CSE passes consult instead of re-deriving equality.
func (d *DFG) ValueNumber(op string, inputs []NodeId, typeTag int32, build func() *Node) NodeId {
	key := CanonicalKey(op, inputs, typeTag)
	if id, ok := d.ValueNumbers[key]; ok {
		return id
	}
	n := build()
	d.ValueNumbers[key] = n.ID
	return n.ID
}

// sideEffecting reports whether a node kind is exempt from dead-code
// elimination at DFG build time, per spec.md §4.2.2 ("Load/Call/Store/
// Return/Throw are never eliminated here").
func sideEffecting(k NodeKind) bool {
	switch k {
	case NodeLoad, NodeCall, NodeStore, NodeReturn:
		return true
	}
	return false
}

// EliminateDeadNodes removes nodes with no users and no side effects,
// per spec.md §4.2.2's build-time DCE. It iterates to a fixed point since
// removing a node can make its own inputs dead.
func (d *DFG) EliminateDeadNodes() int {
	removed := 0
	changed := true
	for changed {
		changed = false
		for id, n := range d.Nodes {
			if sideEffecting(n.Kind) || n.SSAVar != "" && hasUsers(d, id) {
				continue
			}
			if len(n.Users) > 0 {
				continue
			}
			if n.SSAVar != "" {
				// Still referenced by name resolution even with no direct
				// DFG users is possible in this simplified builder; only
				// remove nodes that are truly unreferenced.
				continue
			}
			delete(d.Nodes, id)
			removed++
			changed = true
		}
	}
	return removed
}

func hasUsers(d *DFG, id NodeId) bool {
	return len(d.Nodes[id].Users) > 0
}
