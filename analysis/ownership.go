// ownership.go implements the ownership analyzer of spec.md §4.3.2:
// use-after-move, double-move, borrow-conflict, move-of-borrowed and
// borrow-outlives-owner checks over a semgraph.OwnershipGraph, grounded on
// the ownership-kind state machine implied by replaying
// linage.DataFlowEdge edges in program order (analyzer/linage/kind.go's
// {Read,Write,Call,Xfer,Metadata} edge kinds already model "replay edges to
// derive a variable's current state").
package analysis

import (
	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
)

// OwnershipViolation is one detected memory-safety problem, carrying the
// variable handle, offending site, and any conflicting sites.
type OwnershipViolation struct {
	Code      diag.Code
	Var       symtab.SymbolId
	Site      int
	Conflicts []int
}

// CheckOwnership runs all five checks of spec.md §4.3.2 over g, using sol
// to resolve lifetime-outlives questions for the borrow-outlives-owner
// check.
func CheckOwnership(g *semgraph.OwnershipGraph, sol LifetimeSolution, varLifetime map[symtab.SymbolId]tast.LifetimeId) []OwnershipViolation {
	var out []OwnershipViolation
	out = append(out, checkUseAfterMove(g)...)
	out = append(out, checkDoubleMove(g)...)
	out = append(out, checkBorrowConflict(g)...)
	out = append(out, checkMoveOfBorrowed(g)...)
	out = append(out, checkBorrowOutlivesOwner(g, sol, varLifetime)...)
	return out
}

// checkUseAfterMove flags any borrow whose site is after the variable's
// first move.
func checkUseAfterMove(g *semgraph.OwnershipGraph) []OwnershipViolation {
	var out []OwnershipViolation
	for v, moves := range movesBySource(g) {
		moveSite := moves[0].Site
		for _, b := range g.Borrows {
			if b.Borrowed == v && b.Site > moveSite {
				out = append(out, OwnershipViolation{Code: diag.CodeUseAfterMove, Var: v, Site: b.Site, Conflicts: []int{moveSite}})
			}
		}
	}
	return out
}

// checkDoubleMove flags a second move edge from a variable already moved
// by an earlier move edge.
func checkDoubleMove(g *semgraph.OwnershipGraph) []OwnershipViolation {
	var out []OwnershipViolation
	for v, moves := range movesBySource(g) {
		if len(moves) < 2 {
			continue
		}
		first := moves[0].Site
		for _, m := range moves[1:] {
			out = append(out, OwnershipViolation{Code: diag.CodeDoubleMove, Var: v, Site: m.Site, Conflicts: []int{first}})
		}
	}
	return out
}

// checkBorrowConflict flags concurrent mutable+any-other or multiple
// concurrent mutable borrows of the same variable. Every pair of borrows
// of one variable counts as concurrent: neither moves nor scope exits are
// taken into account.
func checkBorrowConflict(g *semgraph.OwnershipGraph) []OwnershipViolation {
	var out []OwnershipViolation
	byVar := map[symtab.SymbolId][]semgraph.BorrowEdge{}
	for _, b := range g.Borrows {
		byVar[b.Borrowed] = append(byVar[b.Borrowed], b)
	}
	for v, borrows := range byVar {
		for i := 0; i < len(borrows); i++ {
			for j := i + 1; j < len(borrows); j++ {
				a, b := borrows[i], borrows[j]
				if a.Kind == semgraph.Mutable || b.Kind == semgraph.Mutable {
					out = append(out, OwnershipViolation{Code: diag.CodeBorrowConflict, Var: v, Site: b.Site, Conflicts: []int{a.Site}})
				}
			}
		}
	}
	return out
}

// checkMoveOfBorrowed flags a move whose source has a live borrower at the
// move site.
func checkMoveOfBorrowed(g *semgraph.OwnershipGraph) []OwnershipViolation {
	var out []OwnershipViolation
	for _, m := range g.Moves {
		live := g.LiveBorrowers(m.Source, m.Site)
		for _, b := range live {
			out = append(out, OwnershipViolation{Code: diag.CodeMoveOfBorrowed, Var: m.Source, Site: m.Site, Conflicts: []int{b.Site}})
		}
	}
	return out
}

// checkBorrowOutlivesOwner flags a borrow whose borrower lifetime is not
// bounded by (outlived-by) the owner's lifetime in the solved lifetime
// graph, contradicting the solver per spec.md §4.3.2.
func checkBorrowOutlivesOwner(g *semgraph.OwnershipGraph, sol LifetimeSolution, varLifetime map[symtab.SymbolId]tast.LifetimeId) []OwnershipViolation {
	rank := map[tast.LifetimeId]int{}
	for i, l := range sol.Order {
		rank[l] = i
	}
	var out []OwnershipViolation
	for _, b := range g.Borrows {
		ownerLt, hasOwner := varLifetime[b.Borrowed]
		borrowerLt, hasBorrower := varLifetime[b.Borrower]
		if !hasOwner || !hasBorrower {
			continue
		}
		ownerRep := sol.Canonical[ownerLt]
		borrowerRep := sol.Canonical[borrowerLt]
		if ownerRep == borrowerRep {
			continue
		}
		ownerRank, ok1 := rank[ownerRep]
		borrowerRank, ok2 := rank[borrowerRep]
		// Order lists representatives longest-lived first, so the owner must
		// rank no later than the borrower for lifetime(borrower) <= lifetime(owner).
		if ok1 && ok2 && ownerRank > borrowerRank {
			out = append(out, OwnershipViolation{Code: diag.CodeBorrowOutlivesOwner, Var: b.Borrower, Site: b.Site})
		}
	}
	return out
}

func movesBySource(g *semgraph.OwnershipGraph) map[symtab.SymbolId][]semgraph.MoveEdge {
	out := map[symtab.SymbolId][]semgraph.MoveEdge{}
	for _, m := range g.Moves {
		out[m.Source] = append(out[m.Source], m)
	}
	return out
}
