package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeFindWalksParentChain(t *testing.T) {
	table := NewTable("pkg")
	root := table.Root()
	fnScope := NewScope("pkg.Init", "function", "Init", root)
	blockScope := NewScope("pkg.Init.block1", "block", "", fnScope)

	id := table.Declare(fnScope, "x", KindVar, 0, 0)

	found, ok := blockScope.Find("x")
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = blockScope.Find("nope")
	assert.False(t, ok)
}

func TestScopeShadowing(t *testing.T) {
	table := NewTable("pkg")
	root := table.Root()
	fnScope := NewScope("pkg.Init", "function", "Init", root)
	blockScope := NewScope("pkg.Init.block1", "block", "", fnScope)

	outer := table.Declare(fnScope, "x", KindVar, 0, 0)
	inner := table.Declare(blockScope, "x", KindVar, 0, 0)

	got, _ := blockScope.Find("x")
	assert.Equal(t, inner, got)
	assert.NotEqual(t, outer, inner)
}

func TestTopModuleScope(t *testing.T) {
	table := NewTable("pkg")
	root := table.Root()
	fnScope := NewScope("pkg.Init", "function", "Init", root)
	assert.Same(t, root, TopModuleScope(fnScope))
}
