package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeDependenciesTopologicalOrder(t *testing.T) {
	d := NewDriver()
	d.AddFile([]byte("a"), "a")
	d.AddFile([]byte("b"), "b")
	d.AddFile([]byte("c"), "c")
	d.files[1].Imports = []string{"a"} // b imports a
	d.files[2].Imports = []string{"b"} // c imports b

	graph := d.AnalyzeDependencies()

	posA, posB, posC := indexOf(graph.Order, "a"), indexOf(graph.Order, "b"), indexOf(graph.Order, "c")
	assert.True(t, posA < posB)
	assert.True(t, posB < posC)
	assert.Empty(t, graph.Cycles)
}

func TestAnalyzeDependenciesDetectsCycleAsWarningNotError(t *testing.T) {
	d := NewDriver()
	d.AddFile([]byte("a"), "a")
	d.AddFile([]byte("b"), "b")
	d.files[0].Imports = []string{"b"}
	d.files[1].Imports = []string{"a"}

	graph := d.AnalyzeDependencies()

	assert.NotEmpty(t, graph.Cycles)
	assert.Len(t, graph.Order, 0)
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}
