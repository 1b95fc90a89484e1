// loop.go discovers natural loops from dominators and back-edges, the
// foundation the loop vectorizer (spec.md §4.6) builds on. Grounded on
// semgraph's dominator computation (C5), reused here rather than
// reimplemented, since natural-loop discovery is defined entirely in
// terms of the dominator tree.
package optimize

import "github.com/blade-lang/bladec/semgraph"

// Loop is one natural loop: a header block dominating every block in the
// loop body, and the back-edge that closes it.
type Loop struct {
	Header    semgraph.BlockId
	Latch     semgraph.BlockId // the block whose back-edge targets Header
	Body      map[semgraph.BlockId]bool
	ExitEdges []ExitEdge
}

// ExitEdge is a loop-body block with a successor outside the loop.
type ExitEdge struct {
	From, To semgraph.BlockId
}

// FindNaturalLoops returns every natural loop in c, one per back-edge,
// using the standard "blocks that reach the latch without passing through
// the header" body-construction algorithm.
func FindNaturalLoops(c *semgraph.CFG) []*Loop {
	idom := semgraph.Dominators(c)

	var loops []*Loop
	for id, blk := range c.Blocks {
		for succ := range blk.Succs {
			if dominates(idom, succ, id) {
				loops = append(loops, buildLoop(c, succ, id))
			}
		}
	}
	return loops
}

// dominates reports whether a dominates b (a == b counts as dominating).
func dominates(idom map[semgraph.BlockId]semgraph.BlockId, a, b semgraph.BlockId) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		parent, ok := idom[cur]
		if !ok || parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// buildLoop constructs the loop body by walking predecessors backward from
// latch until header is reached, per the standard natural-loop algorithm.
func buildLoop(c *semgraph.CFG, header, latch semgraph.BlockId) *Loop {
	body := map[semgraph.BlockId]bool{header: true, latch: true}
	stack := []semgraph.BlockId{latch}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blk := c.Blocks[cur]
		if blk == nil {
			continue
		}
		for pred := range blk.Preds {
			if !body[pred] {
				body[pred] = true
				stack = append(stack, pred)
			}
		}
	}

	var exits []ExitEdge
	for b := range body {
		blk := c.Blocks[b]
		if blk == nil {
			continue
		}
		for succ := range blk.Succs {
			if !body[succ] {
				exits = append(exits, ExitEdge{From: b, To: succ})
			}
		}
	}

	return &Loop{Header: header, Latch: latch, Body: body, ExitEdges: exits}
}

// SingleExit reports whether l has exactly one distinct exit target, the
// first eligibility condition in spec.md §4.6's vectorizer candidate list.
func (l *Loop) SingleExit() (semgraph.BlockId, bool) {
	if len(l.ExitEdges) == 0 {
		return 0, false
	}
	target := l.ExitEdges[0].To
	for _, e := range l.ExitEdges[1:] {
		if e.To != target {
			return 0, false
		}
	}
	return target, true
}
