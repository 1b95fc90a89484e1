package analysis

import (
	"testing"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineAnalyzeFunction(t *testing.T) {
	e := NewEngine(16)
	cfg := &semgraph.CFG{
		Entry: 0,
		Blocks: map[semgraph.BlockId]*semgraph.BasicBlock{
			0: {ID: 0, Succs: map[semgraph.BlockId]bool{}},
		},
	}
	in := FunctionInput{
		Func:        1,
		CFG:         cfg,
		Constraints: ConstraintSet{Constraints: []Constraint{{Kind: ConstraintOutlives, L1: 1, L2: 2}}},
		VarLifetime: map[symtab.SymbolId]tast.LifetimeId{},
		Vars:        []symtab.SymbolId{10},
	}
	res := e.AnalyzeFunction(in, semgraph.NewCallGraph(), nil)
	assert.Empty(t, res.Dead)
	assert.Equal(t, StackAllocatable, res.Escape.Allocations[10].Class)
	assert.Equal(t, int64(1), e.Stats().Lookups)
}

func TestEngineGlobalConsistencyDetectsMismatch(t *testing.T) {
	e := NewEngine(16)
	perFunc := map[symtab.SymbolId]LifetimeSolution{
		1: {Canonical: map[tast.LifetimeId]tast.LifetimeId{5: 5}},
	}
	global := LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{5: 7}}
	err := e.CheckGlobalConsistency(perFunc, global)
	require.Error(t, err)
}

func TestEngineGlobalConsistencyOK(t *testing.T) {
	e := NewEngine(16)
	perFunc := map[symtab.SymbolId]LifetimeSolution{
		1: {Canonical: map[tast.LifetimeId]tast.LifetimeId{5: 5}},
	}
	global := LifetimeSolution{Canonical: map[tast.LifetimeId]tast.LifetimeId{5: 5}}
	assert.NoError(t, e.CheckGlobalConsistency(perFunc, global))
}
