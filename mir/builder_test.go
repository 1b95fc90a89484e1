package mir

import (
	"testing"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderFirstBlockReusesEntry(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("main")
	b := NewBuilder(m)
	b.BeginFunction(fn)

	entry := b.CreateBlock()
	assert.Equal(t, fn.Entry, entry)
	assert.Len(t, fn.Blocks, 1)

	second := b.CreateBlock()
	assert.NotEqual(t, fn.Entry, second)
	assert.Len(t, fn.Blocks, 2)
}

func TestBuilderEmitsConstAndBinOp(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("add")
	b := NewBuilder(m)
	b.BeginFunction(fn)
	b.CreateBlock()

	tbl := types.NewTable()
	i32 := tbl.Intern(&types.Type{Kind: types.KindI32})

	one := b.Const(int64(1), i32)
	two := b.Const(int64(2), i32)
	sum := b.BinOp(BinAdd, one, two, i32)

	blk := fn.Blocks[fn.Entry]
	require.Len(t, blk.Instrs, 3)
	assert.Equal(t, OpConst, blk.Instrs[0].Op)
	assert.Equal(t, OpBinOp, blk.Instrs[2].Op)
	assert.Equal(t, sum, blk.Instrs[2].Dest)
}

func TestDeclareExternSetsAttributesAndClearsCFG(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("c_malloc")
	b := NewBuilder(m)
	tbl := types.NewTable()
	ptrType := tbl.Intern(&types.Type{Kind: types.KindPointer})
	b.DeclareExtern(fn, ptrType, false)

	assert.True(t, fn.IsExtern())
	assert.Empty(t, fn.Blocks)
	assert.False(t, fn.UsesSRet)
}

func TestDeclareExternStructReturnSetsSRet(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("c_make_point")
	b := NewBuilder(m)
	tbl := types.NewTable()
	structType := tbl.Intern(&types.Type{Kind: types.KindStruct})
	b.DeclareExtern(fn, structType, true)

	assert.True(t, fn.UsesSRet)
}

func TestCallDirectCarriesTailCallAttribute(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("loop")
	callee := m.DeclareFunction("loop")
	b := NewBuilder(m)
	b.BeginFunction(fn)
	b.CreateBlock()
	tbl := types.NewTable()
	voidType := tbl.Intern(&types.Type{Kind: types.KindVoid})

	b.CallDirect(callee.ID, nil, nil, voidType, false, true)
	instr := fn.Blocks[fn.Entry].Instrs[0]
	assert.True(t, instr.TailCall)
}

func TestSetTerminator(t *testing.T) {
	m := NewModule("main")
	fn := m.DeclareFunction("f")
	b := NewBuilder(m)
	b.BeginFunction(fn)
	b.CreateBlock()
	b.SetTerminator(semgraph.Terminator{Kind: semgraph.TermReturn, HasReturnValue: false})
	assert.Equal(t, semgraph.TermReturn, fn.Blocks[fn.Entry].Terminator.Kind)
}
