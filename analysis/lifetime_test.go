package analysis

import (
	"testing"

	"github.com/blade-lang/bladec/tast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverIdempotentAndCaches(t *testing.T) {
	s := NewSolver(8)
	cs := ConstraintSet{Constraints: []Constraint{
		{Kind: ConstraintOutlives, L1: 1, L2: 2, Reason: ReasonBorrow},
	}}
	first := s.Solve(cs)
	second := s.Solve(cs)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), s.Stats().Lookups)
	assert.Equal(t, int64(1), s.Stats().Hits)
	assert.InDelta(t, 0.5, s.Stats().HitRatio(), 1e-9)
}

func TestSolverDetectsOutlivesCycle(t *testing.T) {
	s := NewSolver(8)
	cs := ConstraintSet{Constraints: []Constraint{
		{Kind: ConstraintOutlives, L1: 1, L2: 2, Reason: ReasonBorrow},
		{Kind: ConstraintOutlives, L1: 2, L2: 1, Reason: ReasonBorrow},
	}}
	sol := s.Solve(cs)
	require.Len(t, sol.Conflicts, 1)
	assert.ElementsMatch(t, []tast.LifetimeId{1, 2}, sol.Conflicts[0].Members)
}

func TestSolverEqualClassesMerge(t *testing.T) {
	s := NewSolver(8)
	cs := ConstraintSet{Constraints: []Constraint{
		{Kind: ConstraintEqual, L1: 1, L2: 2},
		{Kind: ConstraintOutlives, L1: 2, L2: 3, Reason: ReasonParameter},
	}}
	sol := s.Solve(cs)
	assert.Equal(t, sol.Canonical[1], sol.Canonical[2])
}

func TestLRUEviction(t *testing.T) {
	s := NewSolver(1)
	a := ConstraintSet{Constraints: []Constraint{{Kind: ConstraintOutlives, L1: 1, L2: 2}}}
	b := ConstraintSet{Constraints: []Constraint{{Kind: ConstraintOutlives, L1: 3, L2: 4}}}
	s.Solve(a)
	s.Solve(b)
	s.Solve(a)
	assert.Equal(t, int64(3), s.Stats().Lookups)
	assert.Equal(t, int64(0), s.Stats().Hits)
}
