package semgraph

// postorder returns blocks reachable from entry in reverse-postorder, used
// by the dominator computation below.
func postorder(c *CFG) []BlockId {
	visited := map[BlockId]bool{}
	var order []BlockId
	var dfs func(id BlockId)
	dfs = func(id BlockId) {
		visited[id] = true
		for succ := range c.Blocks[id].Succs {
			if !visited[succ] {
				dfs(succ)
			}
		}
		order = append(order, id)
	}
	dfs(c.Entry)
	return order
}

// Dominators computes the immediate dominator of every block reachable from
// entry using the Cooper-Harvey-Kennedy iterative algorithm.
func Dominators(c *CFG) map[BlockId]BlockId {
	post := postorder(c)
	rpo := make([]BlockId, len(post))
	postIndex := map[BlockId]int{}
	for i, id := range post {
		rpo[len(post)-1-i] = id
		postIndex[id] = i
	}

	idom := map[BlockId]BlockId{c.Entry: c.Entry}

	intersect := func(a, b BlockId) BlockId {
		for a != b {
			for postIndex[a] < postIndex[b] {
				a = idom[a]
			}
			for postIndex[b] < postIndex[a] {
				b = idom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == c.Entry {
				continue
			}
			var newIdom BlockId
			first := true
			for pred := range c.Blocks[b].Preds {
				if _, ok := idom[pred]; !ok {
					continue
				}
				if first {
					newIdom = pred
					first = false
					continue
				}
				newIdom = intersect(newIdom, pred)
			}
			if first {
				continue // no processed predecessor yet
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	delete(idom, c.Entry) // entry has no dominator other than itself; callers treat it specially
	return idom
}

// DominanceFrontier computes the dominance frontier of every block, the set
// of blocks where a definition stops dominating — exactly the join points
// phi-placement needs (spec.md §4.2.2).
func DominanceFrontier(c *CFG, idom map[BlockId]BlockId) map[BlockId]map[BlockId]bool {
	df := map[BlockId]map[BlockId]bool{}
	for id := range c.Blocks {
		df[id] = map[BlockId]bool{}
	}
	for b := range c.Blocks {
		preds := c.Blocks[b].Preds
		if len(preds) < 2 {
			continue
		}
		for p := range preds {
			runner := p
			for runner != idom[b] && runner != b {
				df[runner][b] = true
				next, ok := idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}
	return df
}

// DominatorTreeChildren inverts idom into a tree adjacency, used by SSA
// renaming to perform a pre-order walk.
func DominatorTreeChildren(c *CFG, idom map[BlockId]BlockId) map[BlockId][]BlockId {
	children := map[BlockId][]BlockId{}
	for b, d := range idom {
		if b == c.Entry {
			continue
		}
		children[d] = append(children[d], b)
	}
	return children
}
