// scc.go implements Tarjan's strongly-connected-components algorithm with an
// explicit work stack (no recursion), grounded on the iterative Tarjan shape
// in other_examples/e0a5470a_jinterlante1206-AleutianLocal__services-trace-graph-analytics.go.go
// (GraphAnalytics.CyclicDependencies), which exists precisely to avoid stack
// overflow on deep dependency graphs — the same concern a whole-program call
// graph or lifetime-constraint DAG can hit on large codebases.
package semgraph

// Graph is the minimal adjacency contract StronglyConnectedComponents needs;
// both CallGraph and the lifetime solver's outlives DAG implement it.
type Graph interface {
	Nodes() []string
	Out(node string) []string
}

// StronglyConnectedComponents returns every strongly connected component of
// g, each as a slice of node ids, using Tarjan's algorithm. A component of
// size 1 is only "recursive" if the node has a self-edge; this function
// returns raw SCCs, callers decide what counts as a cycle (spec.md §4.2.3,
// §4.3.1).
func StronglyConnectedComponents(g Graph) [][]string {
	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var sccs [][]string

	type frame struct {
		node      string
		edgeIndex int
		phase     int // 0 = enter, 1 = iterate edges, 2 = finalize
		child     string
	}

	for _, start := range g.Nodes() {
		if _, seen := indices[start]; seen {
			continue
		}
		callStack := []frame{{node: start}}
		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]
			switch top.phase {
			case 0:
				indices[top.node] = index
				lowlink[top.node] = index
				index++
				stack = append(stack, top.node)
				onStack[top.node] = true
				top.phase = 1

			case 1:
				edges := g.Out(top.node)
				advanced := false
				for top.edgeIndex < len(edges) {
					next := edges[top.edgeIndex]
					top.edgeIndex++
					if _, seen := indices[next]; !seen {
						top.phase = 2
						top.child = next
						callStack = append(callStack, frame{node: next})
						advanced = true
						break
					} else if onStack[next] {
						if indices[next] < lowlink[top.node] {
							lowlink[top.node] = indices[next]
						}
					}
				}
				if advanced {
					continue
				}
				top.phase = 3

			case 2:
				if lowlink[top.child] < lowlink[top.node] {
					lowlink[top.node] = lowlink[top.child]
				}
				top.phase = 1

			case 3:
				if lowlink[top.node] == indices[top.node] {
					var component []string
					for {
						n := stack[len(stack)-1]
						stack = stack[:len(stack)-1]
						onStack[n] = false
						component = append(component, n)
						if n == top.node {
							break
						}
					}
					sccs = append(sccs, component)
				}
				callStack = callStack[:len(callStack)-1]
			}
		}
	}
	return sccs
}
