package mono

import (
	"testing"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identitySubst(t types.TypeId, subMap map[string]types.TypeId) types.TypeId {
	return t
}

func TestSpecializeOncePerDistinctArgs(t *testing.T) {
	m := mir.NewModule("main")
	tbl := types.NewTable()
	i32 := tbl.Intern(&types.Type{Kind: types.KindI32, Name: "i32"})
	f64 := tbl.Intern(&types.Type{Kind: types.KindF64, Name: "f64"})

	generic := m.DeclareFunction("identity")
	generic.TypeParams = []string{"T"}
	generic.Params = []mir.Param{{Name: "x", Type: 0}}

	mm := NewMonomorphizer(m)
	mm.RecordCallSite(generic.ID, []types.TypeId{i32}, CallSiteRef{Caller: generic.ID, Block: 0, Instr: 0})
	mm.RecordCallSite(generic.ID, []types.TypeId{i32}, CallSiteRef{Caller: generic.ID, Block: 0, Instr: 1})
	mm.RecordCallSite(generic.ID, []types.TypeId{f64}, CallSiteRef{Caller: generic.ID, Block: 0, Instr: 2})

	produced := mm.Run(tbl, identitySubst)
	require.Len(t, produced, 2)
	assert.NotEqual(t, produced[0], produced[1])

	again := mm.Run(tbl, identitySubst)
	assert.Equal(t, produced, again)
}

func TestMangledNameUsesTypeNames(t *testing.T) {
	tbl := types.NewTable()
	i32 := tbl.Intern(&types.Type{Kind: types.KindI32, Name: "i32"})
	name := MangledName("identity", []types.TypeId{i32}, tbl)
	assert.Equal(t, "identity$i32", name)
}

func TestResolveTypeTag(t *testing.T) {
	assert.Equal(t, TagBool, ResolveTypeTag(&types.Type{Kind: types.KindBool}))
	assert.Equal(t, TagPrimitiveInt, ResolveTypeTag(&types.Type{Kind: types.KindI32}))
	assert.Equal(t, TagFloat, ResolveTypeTag(&types.Type{Kind: types.KindF64}))
	assert.Equal(t, TagString, ResolveTypeTag(&types.Type{Kind: types.KindString}))
	assert.Equal(t, TagPointer, ResolveTypeTag(&types.Type{Kind: types.KindPointer}))
}

func TestCloneRewritesTypeBearingFields(t *testing.T) {
	m := mir.NewModule("main")
	tbl := types.NewTable()
	tvar := tbl.Intern(&types.Type{Kind: types.KindAny, Name: "T"})
	i32 := tbl.Intern(&types.Type{Kind: types.KindI32, Name: "i32"})

	generic := m.DeclareFunction("box")
	generic.TypeParams = []string{"T"}
	generic.Blocks[generic.Entry].Instrs = []mir.Instr{
		{Op: mir.OpAlloc, Dest: 0, ValueType: tvar},
	}

	substTo := func(t types.TypeId, subMap map[string]types.TypeId) types.TypeId {
		if t == tvar {
			return subMap["T"]
		}
		return t
	}

	mm := NewMonomorphizer(m)
	mm.RecordCallSite(generic.ID, []types.TypeId{i32}, CallSiteRef{Caller: generic.ID, Block: uint32(generic.Entry), Instr: 0})
	produced := mm.Run(tbl, substTo)
	require.Len(t, produced, 1)

	clone := m.Functions[produced[0]]
	assert.Equal(t, i32, clone.Blocks[clone.Entry].Instrs[0].ValueType)
	assert.Empty(t, clone.TypeParams)
}

func TestTransitiveFixupClosureFindsCallers(t *testing.T) {
	m := mir.NewModule("main")
	callee := m.DeclareFunction("callee")
	callee.TypeParamTagFixups = []mir.TagFixup{{Reg: 0, ParamName: "T"}}

	caller := m.DeclareFunction("caller")
	caller.Blocks[caller.Entry].Instrs = []mir.Instr{
		{Op: mir.OpCallDirect, Callee: uint32(callee.ID)},
	}

	closure := transitiveFixupClosure(m)
	assert.True(t, closure[caller.ID])
	assert.False(t, closure[callee.ID])
}
