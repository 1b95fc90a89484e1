package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/intern"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
	"github.com/blade-lang/bladec/types"
)

func TestBuildManifestExtractsClassSurface(t *testing.T) {
	tb := types.NewTable()
	it := intern.New()
	st := symtab.NewTable("test")

	stringType := tb.Intern(&types.Type{Kind: types.KindString})
	i32Type := tb.Intern(&types.Type{Kind: types.KindI32})

	nameID := it.Intern("name")
	fieldSym := st.Declare(st.Root(), "name", symtab.KindField, stringType, nameID)

	class := &tast.Class{
		Name:    "Point",
		Extends: "",
		Fields: []tast.Param{
			{Symbol: fieldSym, Type: stringType},
		},
		Methods: []*tast.Function{
			{Name: "getX", ReturnType: i32Type},
		},
	}

	file := &tast.File{Path: "point.bl", Classes: []*tast.Class{class}}

	m := BuildManifest(tb, st, it, []*tast.File{file})
	require.Len(t, m.Modules, 1)
	require.Len(t, m.Modules[0].Classes, 1)

	entry := m.Modules[0].Classes[0]
	assert.Equal(t, "Point", entry.Name)
	require.Len(t, entry.Fields, 1)
	assert.Equal(t, "name", entry.Fields[0].Name)
	assert.Equal(t, "string", entry.Fields[0].Type)
	require.Len(t, entry.Methods, 1)
	assert.Equal(t, "getX", entry.Methods[0].Name)
	assert.Equal(t, "i32", entry.Methods[0].ReturnType)
}

func TestBuildManifestExtractsAliases(t *testing.T) {
	tb := types.NewTable()
	it := intern.New()
	st := symtab.NewTable("test")

	i64Type := tb.Intern(&types.Type{Kind: types.KindI64})
	file := &tast.File{
		Path:    "alias.bl",
		Aliases: map[string]types.TypeId{"Timestamp": i64Type},
	}

	m := BuildManifest(tb, st, it, []*tast.File{file})
	require.Len(t, m.Modules[0].Aliases, 1)
	assert.Equal(t, "Timestamp", m.Modules[0].Aliases[0].Name)
	assert.Equal(t, "i64", m.Modules[0].Aliases[0].Underlying)
}
