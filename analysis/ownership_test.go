package analysis

import (
	"testing"

	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
	"github.com/stretchr/testify/assert"
)

func hasCode(vs []OwnershipViolation, code diag.Code) bool {
	for _, v := range vs {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestUseAfterMove(t *testing.T) {
	g := semgraph.NewOwnershipGraph()
	var x symtab.SymbolId = 1
	g.Declare(x, 0)
	g.Move(x, 0, false, 1)
	g.Borrow(2, x, semgraph.Immutable, 2)
	vs := CheckOwnership(g, LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{}}, nil)
	assert.True(t, hasCode(vs, diag.CodeUseAfterMove))
}

func TestDoubleMove(t *testing.T) {
	g := semgraph.NewOwnershipGraph()
	var x symtab.SymbolId = 1
	g.Declare(x, 0)
	g.Move(x, 2, true, 1)
	g.Move(x, 3, true, 2)
	vs := CheckOwnership(g, LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{}}, nil)
	assert.True(t, hasCode(vs, diag.CodeDoubleMove))
}

func TestBorrowConflictMutableVsMutable(t *testing.T) {
	g := semgraph.NewOwnershipGraph()
	var x symtab.SymbolId = 1
	g.Declare(x, 0)
	g.Borrow(2, x, semgraph.Mutable, 1)
	g.Borrow(3, x, semgraph.Mutable, 2)
	vs := CheckOwnership(g, LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{}}, nil)
	assert.True(t, hasCode(vs, diag.CodeBorrowConflict))
}

func TestMoveOfBorrowed(t *testing.T) {
	g := semgraph.NewOwnershipGraph()
	var x symtab.SymbolId = 1
	g.Declare(x, 0)
	g.Borrow(2, x, semgraph.Immutable, 1)
	g.Move(x, 0, false, 2)
	vs := CheckOwnership(g, LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{}}, nil)
	assert.True(t, hasCode(vs, diag.CodeMoveOfBorrowed))
}

func TestBorrowOutlivesOwner(t *testing.T) {
	g := semgraph.NewOwnershipGraph()
	var owner, borrower symtab.SymbolId = 1, 2
	g.Declare(owner, 10)
	g.Borrow(borrower, owner, semgraph.Immutable, 1)
	sol := LifetimeSolution{
		Canonical: map[tast.LifetimeId]tast.LifetimeId{10: 10, 20: 20},
		Order:     []tast.LifetimeId{20, 10}, // 20 (borrower) ranked before 10 (owner) => owner does not outlive
	}
	varLifetime := map[symtab.SymbolId]tast.LifetimeId{owner: 10, borrower: 20}
	vs := CheckOwnership(g, sol, varLifetime)
	assert.True(t, hasCode(vs, diag.CodeBorrowOutlivesOwner))
}
