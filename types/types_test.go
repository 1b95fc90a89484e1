package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalization(t *testing.T) {
	table := NewTable()

	i32a := table.Intern(&Type{Kind: KindI32})
	i32b := table.Intern(&Type{Kind: KindI32})
	assert.Equal(t, i32a, i32b, "structurally equal types must share one handle")

	ptrA := table.Intern(&Type{Kind: KindPointer, Elem: i32a})
	ptrB := table.Intern(&Type{Kind: KindPointer, Elem: i32b})
	assert.Equal(t, ptrA, ptrB)

	str := table.Intern(&Type{Kind: KindString})
	assert.NotEqual(t, i32a, str)
}

func TestStructFieldLookup(t *testing.T) {
	table := NewTable()
	i32 := table.Intern(&Type{Kind: KindI32})

	st := &Type{Kind: KindStruct, Name: "Point"}
	st.AddField(StructField{Name: "x", Type: i32, Offset: 0})
	st.AddField(StructField{Name: "y", Type: i32, Offset: 4})

	id := table.Intern(st)
	got := table.Get(id)

	f, ok := got.GetField("y")
	assert.True(t, ok)
	assert.Equal(t, 4, f.Offset)

	_, ok = got.GetField("z")
	assert.False(t, ok)
}

func TestGenericInstantiationCache(t *testing.T) {
	table := NewTable()
	i32 := table.Intern(&Type{Kind: KindI32})
	str := table.Intern(&Type{Kind: KindString})

	base := table.Intern(&Type{Kind: KindOpaque, Name: "Box"})

	a := table.Instantiate(base, []TypeId{i32})
	b := table.Instantiate(base, []TypeId{i32})
	c := table.Instantiate(base, []TypeId{str})

	assert.Equal(t, a, b, "instantiating with identical args must hit the cache")
	assert.NotEqual(t, a, c)
}
