package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// scalarEpilogueFixture builds a loop with a single exit edge (header 1 ->
// exit 2) and a scalar body (load, add, store) standing in for the
// pre-vectorization instruction stream transform snapshots before
// overwriting the body's Instrs in place.
func scalarEpilogueFixture() (*mir.Function, Candidate, []mir.Instr) {
	fn := &mir.Function{
		Blocks: map[semgraph.BlockId]*mir.Block{
			1: {ID: 1, Terminator: semgraph.Terminator{Kind: semgraph.TermJump, Target: 2}},
			2: {ID: 2},
		},
		RegTypes: map[mir.Reg]types.TypeId{},
	}

	scalarBody := []mir.Instr{
		{Op: mir.OpLoad, Dest: 100, Ptr: 5},
		{Op: mir.OpBinOp, Dest: 101, LHS: 100, RHS: 6, BinOp: mir.BinAdd},
		{Op: mir.OpStore, Ptr: 5, StoreVal: 101},
	}

	cand := Candidate{
		Loop: &Loop{
			Header:    1,
			Latch:     1,
			Body:      map[semgraph.BlockId]bool{1: true},
			ExitEdges: []ExitEdge{{From: 1, To: 2}},
		},
	}
	return fn, cand, scalarBody
}

func TestEmitScalarEpilogueUnrollsNonExactTripCount(t *testing.T) {
	fn, cand, scalarBody := scalarEpilogueFixture()

	emitScalarEpilogue(fn, cand, scalarBody, 2)

	// header 1 and exit 2 existed already, so the fresh block lands at 3.
	epilogue, ok := fn.Blocks[3]
	require.True(t, ok, "expected a new epilogue block to be spliced in")
	require.Len(t, epilogue.Instrs, 6, "2 iterations * 3 instructions each")
	assert.Equal(t, semgraph.Terminator{Kind: semgraph.TermJump, Target: 2}, epilogue.Terminator)

	// the loop's exit edge now runs through the epilogue instead of
	// straight to the original exit block.
	assert.Equal(t, semgraph.BlockId(3), fn.Blocks[1].Terminator.Target)

	first, second := epilogue.Instrs[:3], epilogue.Instrs[3:]
	assert.NotEqual(t, first[0].Dest, second[0].Dest, "each unrolled iteration gets its own registers")
	assert.NotEqual(t, first[1].Dest, second[1].Dest)

	// within an iteration, the store's value register must follow the
	// same iteration's add, and loads/adds referencing the external
	// pointer register (5) must leave it untouched.
	assert.Equal(t, first[1].Dest, first[2].StoreVal)
	assert.Equal(t, mir.Reg(5), first[0].Ptr)
	assert.Equal(t, mir.Reg(5), first[2].Ptr)
	assert.Equal(t, first[0].Dest, first[1].LHS, "the add must read the remapped load result, not the original register")
}

func TestEmitScalarEpilogueSkipsResidualsLongerThanFour(t *testing.T) {
	fn, cand, scalarBody := scalarEpilogueFixture()

	emitScalarEpilogue(fn, cand, scalarBody, 5)

	assert.Len(t, fn.Blocks, 2, "no epilogue block for a residual this pass does not build")
	assert.Equal(t, semgraph.BlockId(2), fn.Blocks[1].Terminator.Target, "exit edge must stay untouched")
}
