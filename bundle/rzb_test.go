package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/semgraph"
)

func moduleWithCallChain() *mir.Module {
	m := mir.NewModule("prog")
	main := m.DeclareFunction("main")
	helper := m.DeclareFunction("helper")
	dead := m.DeclareFunction("unused")

	block := main.Blocks[main.Entry]
	block.Instrs = append(block.Instrs, mir.Instr{Op: mir.OpCallDirect, Callee: uint32(helper.ID)})
	block.Terminator = semgraph.Terminator{Kind: semgraph.TermReturn}

	helperBlock := helper.Blocks[helper.Entry]
	helperBlock.Terminator = semgraph.Terminator{Kind: semgraph.TermReturn}

	deadBlock := dead.Blocks[dead.Entry]
	deadBlock.Terminator = semgraph.Terminator{Kind: semgraph.TermReturn}

	return m
}

func TestIsEntryFunction(t *testing.T) {
	assert.True(t, IsEntryFunction("main"))
	assert.True(t, IsEntryFunction("Main_main"))
	assert.True(t, IsEntryFunction("Program_main"))
	assert.False(t, IsEntryFunction("helper"))
}

func TestFindEntryLocatesDefaultRule(t *testing.T) {
	m := moduleWithCallChain()
	owner, fn, ok := FindEntry([]*mir.Module{m})
	require.True(t, ok)
	assert.Equal(t, m, owner)
	assert.Equal(t, "main", fn.Name)
}

func TestTreeShakeDropsUnreachableFunctions(t *testing.T) {
	m := moduleWithCallChain()
	owner, entry, ok := FindEntry([]*mir.Module{m})
	require.True(t, ok)

	shaken := TreeShake([]*mir.Module{m}, owner, entry)
	require.Len(t, shaken, 1)

	_, hasMain := shaken[0].FindByName("main")
	_, hasHelper := shaken[0].FindByName("helper")
	_, hasDead := shaken[0].FindByName("unused")
	assert.True(t, hasMain)
	assert.True(t, hasHelper)
	assert.False(t, hasDead)
}

func TestBuildReportsRemovedCounts(t *testing.T) {
	m := moduleWithCallChain()
	b, err := Build([]*mir.Module{m}, OptO0, true, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Removed.Functions)
}

func TestSerializeDeserializeRoundTripsUncompressed(t *testing.T) {
	m := moduleWithCallChain()
	b, err := Build([]*mir.Module{m}, OptO0, false, false, nil)
	require.NoError(t, err)

	data, err := Serialize(b)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, b.Header.EntryFunction, back.Header.EntryFunction)
}

func TestSerializeDeserializeRoundTripsCompressed(t *testing.T) {
	m := moduleWithCallChain()
	b, err := Build([]*mir.Module{m}, OptO0, false, true, nil)
	require.NoError(t, err)

	data, err := Serialize(b)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	assert.True(t, back.Header.Compressed)
	assert.Equal(t, b.Header.EntryFunction, back.Header.EntryFunction)
}

func TestBuildErrorsWithoutEntryFunction(t *testing.T) {
	m := mir.NewModule("empty")
	m.DeclareFunction("notAnEntryPoint")
	_, err := Build([]*mir.Module{m}, OptO0, false, false, nil)
	assert.Error(t, err)
}
