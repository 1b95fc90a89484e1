// engine.go coordinates the four analysis passes in the dependency order
// spec.md §4.3 requires (lifetime solving first, since the ownership check
// consults its solution) and performs the final cross-function
// consistency check.
package analysis

import (
	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
)

// FunctionInput bundles one function's semantic graphs and derived sets,
// the inputs the engine needs to run all four passes over it.
type FunctionInput struct {
	Func            symtab.SymbolId
	CFG             *semgraph.CFG
	DFG             *semgraph.DFG
	Ownership       *semgraph.OwnershipGraph
	Constraints     ConstraintSet
	VarLifetime     map[symtab.SymbolId]tast.LifetimeId
	Vars            []symtab.SymbolId
	ReturnVars      map[symtab.SymbolId]bool
	ParamAliases    map[symtab.SymbolId]bool
	HeapSinks       map[symtab.SymbolId]bool
	DebugOnlyVars   map[symtab.SymbolId]bool
}

// FunctionResult is everything the four passes produced for one function.
type FunctionResult struct {
	Lifetime  LifetimeSolution
	Ownership []OwnershipViolation
	Escape    Result
	Dead      []DeadRegion
}

// Report is FunctionResult under the name the cross-analysis integration
// surface uses (pipeline.Driver.AnalyzeFunction, consumed by external
// tooling).
type Report = FunctionResult

// Engine runs the analysis passes over every function in a program and
// enforces spec.md §4.3's final consistency check.
type Engine struct {
	solver *Solver
}

// NewEngine returns an engine with an LRU lifetime cache of the given
// capacity, shared across every function analyzed (so equivalent
// constraint sets across functions also hit the cache).
func NewEngine(cacheCapacity int) *Engine {
	return &Engine{solver: NewSolver(cacheCapacity)}
}

// Stats exposes the shared lifetime solver's cache-hit statistics.
func (e *Engine) Stats() LifetimeStatistics { return e.solver.Stats() }

// AnalyzeFunction runs lifetime solving, then ownership checking (which
// consumes the solver's solution) and escape analysis (which does not),
// then dead-code detection, in that order, per spec.md §4.3.
func (e *Engine) AnalyzeFunction(in FunctionInput, cg *semgraph.CallGraph, recursiveGroups [][]symtab.SymbolId) FunctionResult {
	sol := e.solver.Solve(in.Constraints)

	var ownership []OwnershipViolation
	if in.Ownership != nil {
		ownership = CheckOwnership(in.Ownership, sol, in.VarLifetime)
	}

	escape := AnalyzeEscape(in.Vars, in.ReturnVars, in.ParamAliases, in.HeapSinks, recursiveGroups)

	var dead []DeadRegion
	if in.CFG != nil {
		dead = append(dead, FindUnreachableBlocks(in.CFG)...)
	}
	if in.DFG != nil {
		dead = append(dead, FindUnusedVariables(in.DFG, in.DebugOnlyVars)...)
		dead = append(dead, FindDeadStores(in.DFG)...)
	}

	return FunctionResult{Lifetime: sol, Ownership: ownership, Escape: escape, Dead: dead}
}

// CheckGlobalConsistency validates that every function's per-function
// lifetime solution assigns a canonical representative consistent with
// the global constraint set's solution — spec.md §4.3's "any mismatch is
// an internal error" rule. A mismatch means the same lifetime id resolved
// to different representatives in the per-function pass versus the global
// pass, which can only happen from a bug in constraint derivation.
func (e *Engine) CheckGlobalConsistency(perFunction map[symtab.SymbolId]LifetimeSolution, global LifetimeSolution) error {
	for fn, sol := range perFunction {
		for lt, rep := range sol.Canonical {
			globalRep, ok := global.Canonical[lt]
			if !ok {
				continue
			}
			if globalRep != rep {
				_ = fn
				return diag.NewInternal(diag.CodeInconsistentAnalysis, "per-function lifetime solution diverges from global solution")
			}
		}
	}
	return nil
}
