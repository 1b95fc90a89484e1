package optimize

import (
	"testing"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLoopyCFG builds: 0 (entry) -> 1 (header) -> 2 (body) -> 1 (latch
// back-edge), 1 -> 3 (exit).
func buildLoopyCFG() *semgraph.CFG {
	mk := func(id semgraph.BlockId, succs ...semgraph.BlockId) *semgraph.BasicBlock {
		s := map[semgraph.BlockId]bool{}
		for _, x := range succs {
			s[x] = true
		}
		return &semgraph.BasicBlock{ID: id, Succs: s, Preds: map[semgraph.BlockId]bool{}}
	}
	c := &semgraph.CFG{Entry: 0, Blocks: map[semgraph.BlockId]*semgraph.BasicBlock{
		0: mk(0, 1),
		1: mk(1, 2, 3),
		2: mk(2, 1),
		3: mk(3),
	}}
	for id, blk := range c.Blocks {
		for succ := range blk.Succs {
			c.Blocks[succ].Preds[id] = true
		}
	}
	return c
}

func TestFindNaturalLoops(t *testing.T) {
	c := buildLoopyCFG()
	loops := FindNaturalLoops(c)
	require.Len(t, loops, 1)
	assert.Equal(t, semgraph.BlockId(1), loops[0].Header)
	assert.Equal(t, semgraph.BlockId(2), loops[0].Latch)
	assert.True(t, loops[0].Body[1])
	assert.True(t, loops[0].Body[2])
	assert.False(t, loops[0].Body[3])
}

func TestLoopSingleExit(t *testing.T) {
	c := buildLoopyCFG()
	loops := FindNaturalLoops(c)
	exit, ok := loops[0].SingleExit()
	assert.True(t, ok)
	assert.Equal(t, semgraph.BlockId(3), exit)
}
