// escape.go implements the escape analysis pass of spec.md §4.3.3,
// classifying each allocation from caller-supplied sets (variables, return
// and parameter aliases, heap sinks, recursive call groups); it reads
// neither the call graph nor the ownership graph itself.
// Grounded on the Orizon lifetime analyzer's EscapeGraph/EscapeNode/
// EscapeEdge/EscapeState shape in
// other_examples/187df290_SeleniaProject-Orizon__internal-runtime-lifetime_analyzer.go.go,
// narrowed from its five-level EscapeState enum to the three-way
// classification spec.md actually asks for.
package analysis

import "github.com/blade-lang/bladec/symtab"

// EscapeClass is where an allocation ultimately lives.
type EscapeClass int

const (
	StackAllocatable EscapeClass = iota
	EscapesToHeap
	EscapesToCaller
)

// InliningHint mirrors spec.md §4.3.3's five-way hint enum.
type InliningHint int

const (
	HintNone InliningHint = iota
	HintSuggest
	HintAvoid
	HintAlways
	HintNever
)

// AllocationSite is one tracked allocation (a local variable or a
// heap-producing expression).
type AllocationSite struct {
	Var      symtab.SymbolId
	Class    EscapeClass
	Reasons  []string
}

// EscapeEdgeKind mirrors the Orizon EscapeEdgeType enum, narrowed to the
// edge shapes this analyzer actually derives from the ownership graph and
// call sites.
type EscapeEdgeKind int

const (
	EdgeAssignment EscapeEdgeKind = iota
	EdgeParameter
	EdgeReturn
	EdgeField
	EdgeCall
)

// EscapeEdge is one derivation step in the escape graph: from escapes
// through to, via kind.
type EscapeEdge struct {
	From, To symtab.SymbolId
	Kind     EscapeEdgeKind
}

// Result is the escape analyzer's output for one function.
type Result struct {
	Allocations   map[symtab.SymbolId]*AllocationSite
	InlineHints   map[symtab.SymbolId]InliningHint
	InlinableFuncs []symtab.SymbolId
}

// AnalyzeEscape classifies every declared variable in vars as one of the
// three escape classes, using returnVars (symbols returned by value or by
// reference), paramAliases (variables stored into parameters, i.e. escape
// to the caller through an out-param or captured reference), and
// heapSinks (variables passed into call sites whose callee retains them,
// e.g. stored into a global or a heap-allocated field), per spec.md
// §4.3.3.
func AnalyzeEscape(vars []symtab.SymbolId, returnVars, paramAliases, heapSinks map[symtab.SymbolId]bool, recursiveGroups [][]symtab.SymbolId) Result {
	res := Result{
		Allocations: map[symtab.SymbolId]*AllocationSite{},
		InlineHints: map[symtab.SymbolId]InliningHint{},
	}
	for _, v := range vars {
		site := &AllocationSite{Var: v, Class: StackAllocatable}
		switch {
		case heapSinks[v]:
			site.Class = EscapesToHeap
			site.Reasons = append(site.Reasons, "stored into heap-retained location")
		case returnVars[v] || paramAliases[v]:
			site.Class = EscapesToCaller
			site.Reasons = append(site.Reasons, "returned or aliased through a parameter")
		}
		res.Allocations[v] = site
	}

	inRecursive := map[symtab.SymbolId]bool{}
	for _, group := range recursiveGroups {
		for _, f := range group {
			inRecursive[f] = true
		}
	}
	for _, v := range vars {
		switch {
		case inRecursive[v]:
			res.InlineHints[v] = HintNever
		case res.Allocations[v].Class == StackAllocatable:
			res.InlineHints[v] = HintSuggest
		case res.Allocations[v].Class == EscapesToHeap:
			res.InlineHints[v] = HintAvoid
		default:
			res.InlineHints[v] = HintNone
		}
	}
	for v, hint := range res.InlineHints {
		if hint == HintSuggest || hint == HintAlways {
			res.InlinableFuncs = append(res.InlinableFuncs, v)
		}
	}
	return res
}
