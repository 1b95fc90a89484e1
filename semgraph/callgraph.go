// callgraph.go implements the whole-program Call Graph (spec.md §3/§4.2.3),
// generalizing analyzer/touchpoint.go's callGraph map[string][]string
// bookkeeping (applyTransitiveDependencies) from "function name -> direct
// dependency names" to typed call sites with dispatch-kind resolution.
package semgraph

import "github.com/blade-lang/bladec/symtab"

// TargetKind classifies how a call site resolves to its callee(s).
type TargetKind int

const (
	TargetDirect TargetKind = iota
	TargetVirtual
	TargetDynamic
	TargetExternal
	TargetUnresolved
)

// CallTarget describes a call site's resolved callee(s).
type CallTarget struct {
	Kind             TargetKind
	Direct           symtab.SymbolId   // TargetDirect/TargetExternal
	Method           string            // TargetVirtual
	ReceiverType     string            // TargetVirtual
	PossibleTargets  []symtab.SymbolId // TargetVirtual/TargetDynamic
}

// CallSite is one call expression in the program.
type CallSite struct {
	Caller         symtab.SymbolId
	Target         CallTarget
	ArgUsage       []string // copy/borrow/move per argument, mirrors tast.Usage names
	CanThrow       bool
	HasSideEffects bool
	InliningHint   string
}

// CallGraph is the whole-program call graph: vertices are function symbols,
// edges are call sites.
type CallGraph struct {
	Sites map[symtab.SymbolId][]CallSite
	funcs map[symtab.SymbolId]bool
}

// NewCallGraph returns an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{Sites: map[symtab.SymbolId][]CallSite{}, funcs: map[symtab.SymbolId]bool{}}
}

// AddFunction registers fn as a vertex even if it has no outgoing calls yet,
// so isolated functions still appear in SCC/reachability queries.
func (cg *CallGraph) AddFunction(fn symtab.SymbolId) {
	cg.funcs[fn] = true
	if _, ok := cg.Sites[fn]; !ok {
		cg.Sites[fn] = nil
	}
}

// AddCallSite records a call edge from caller.
func (cg *CallGraph) AddCallSite(site CallSite) {
	cg.AddFunction(site.Caller)
	cg.Sites[site.Caller] = append(cg.Sites[site.Caller], site)
}

// ResolveVirtual computes a virtual call's possible_targets as the set of
// overriding methods in subclasses of the receiver's static type plus the
// static target, per spec.md §4.2.3. hierarchy maps a class name to its
// direct subclasses; overrides maps (class, method) to the symbol that
// implements it there.
func ResolveVirtual(receiverType, method string, hierarchy map[string][]string, overrides map[[2]string]symtab.SymbolId, staticTarget symtab.SymbolId) CallTarget {
	targets := []symtab.SymbolId{staticTarget}
	var walk func(class string)
	seen := map[string]bool{}
	walk = func(class string) {
		for _, sub := range hierarchy[class] {
			if seen[sub] {
				continue
			}
			seen[sub] = true
			if sym, ok := overrides[[2]string{sub, method}]; ok {
				targets = append(targets, sym)
			}
			walk(sub)
		}
	}
	walk(receiverType)
	return CallTarget{Kind: TargetVirtual, Method: method, ReceiverType: receiverType, PossibleTargets: targets}
}

// symbolGraph adapts CallGraph to the Graph interface for SCC computation;
// node ids are stringified SymbolIds since Graph works over strings so the
// same SCC routine serves both the call graph and the lifetime outlives DAG.
type symbolGraph struct {
	cg *CallGraph
}

func symID(s symtab.SymbolId) string { return symIDFormat(s) }

func (g symbolGraph) Nodes() []string {
	out := make([]string, 0, len(g.cg.funcs))
	for f := range g.cg.funcs {
		out = append(out, symID(f))
	}
	return out
}

func (g symbolGraph) Out(node string) []string {
	sym := parseSymID(node)
	var out []string
	for _, site := range g.cg.Sites[sym] {
		switch site.Target.Kind {
		case TargetDirect:
			out = append(out, symID(site.Target.Direct))
		case TargetVirtual, TargetDynamic:
			for _, t := range site.Target.PossibleTargets {
				out = append(out, symID(t))
			}
		}
	}
	return out
}

// RecursiveGroups returns each strongly connected component of size >= 2,
// plus single-node components that have a self-edge (a direct or virtual
// call back to themselves), per spec.md §4.2.3.
func (cg *CallGraph) RecursiveGroups() [][]symtab.SymbolId {
	sccs := StronglyConnectedComponents(symbolGraph{cg})
	var groups [][]symtab.SymbolId
	for _, scc := range sccs {
		if len(scc) >= 2 || (len(scc) == 1 && hasSelfEdge(cg, parseSymID(scc[0]))) {
			group := make([]symtab.SymbolId, len(scc))
			for i, s := range scc {
				group[i] = parseSymID(s)
			}
			groups = append(groups, group)
		}
	}
	return groups
}

func hasSelfEdge(cg *CallGraph, fn symtab.SymbolId) bool {
	for _, out := range symbolGraph{cg}.Out(symID(fn)) {
		if out == symID(fn) {
			return true
		}
	}
	return false
}
