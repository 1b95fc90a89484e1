package pipeline

import "sort"

// DependencyGraph is the import relation over a unit's user files, the
// output of analyze_dependencies (spec.md §4.1).
type DependencyGraph struct {
	Order    []string            // topological order over import edges, ties broken by path; files in or behind a cycle are absent
	Cycles   [][]string          // each entry is one cyclic group, reported as a warning
	Incoming map[string][]string // file -> files that import it
}

// AnalyzeDependencies builds the dependency graph over every tracked
// file's Imports list and computes a topological compile order. Cycles
// are detected but never treated as fatal: spec.md §7 requires cyclic
// imports to surface as a warning, not an error, since cross-references
// inside a single compilation unit are legal.
func (d *Driver) AnalyzeDependencies() DependencyGraph {
	byPath := map[string]*SourceFile{}
	for _, f := range d.files {
		byPath[f.Path] = f
	}

	indeg := map[string]int{}
	adj := map[string][]string{}
	incoming := map[string][]string{}
	for _, f := range d.files {
		if _, ok := indeg[f.Path]; !ok {
			indeg[f.Path] = 0
		}
		for _, imp := range f.Imports {
			target, ok := d.ResolveImport(imp, []string{""})
			if !ok {
				target = imp
			}
			if _, ok := byPath[target]; !ok {
				continue
			}
			adj[target] = append(adj[target], f.Path)
			incoming[f.Path] = append(incoming[f.Path], target)
			indeg[f.Path]++
		}
	}

	paths := make([]string, 0, len(d.files))
	for _, f := range d.files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)

	var queue []string
	remaining := map[string]int{}
	for p, n := range indeg {
		remaining[p] = n
		if n == 0 {
			queue = append(queue, p)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		sort.Strings(queue)
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)
		succs := append([]string{}, adj[next]...)
		sort.Strings(succs)
		for _, s := range succs {
			remaining[s]--
			if remaining[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	graph := DependencyGraph{Order: order, Incoming: incoming}
	if len(order) < len(paths) {
		inOrder := map[string]bool{}
		for _, p := range order {
			inOrder[p] = true
		}
		var stuck []string
		for _, p := range paths {
			if !inOrder[p] {
				stuck = append(stuck, p)
			}
		}
		graph.Cycles = tarjanSCCs(stuck, incoming)
	}
	return graph
}

// tarjanSCCs finds the import cycles among the stuck nodes (files the
// topological pass could not order), restricted to the incoming edges
// supplied, using Tarjan's algorithm. Only cyclic components are returned:
// two or more files, or one file that imports itself.
func tarjanSCCs(nodes []string, incoming map[string][]string) [][]string {
	index := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	counter := 0
	var sccs [][]string

	nodeSet := map[string]bool{}
	for _, n := range nodes {
		nodeSet[n] = true
	}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		neighbors := append([]string{}, incoming[v]...)
		sort.Strings(neighbors)
		for _, w := range neighbors {
			if !nodeSet[w] {
				continue
			}
			if _, visited := index[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			cyclic := len(scc) > 1
			for _, w := range incoming[v] {
				if w == v {
					cyclic = true
				}
			}
			if cyclic {
				sccs = append(sccs, scc)
			}
		}
	}

	sort.Strings(nodes)
	for _, v := range nodes {
		if _, visited := index[v]; !visited {
			strongconnect(v)
		}
	}
	return sccs
}
