package analysis

import (
	"testing"

	"github.com/blade-lang/bladec/symtab"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEscapeClassification(t *testing.T) {
	var stackVar, returnedVar, heapVar symtab.SymbolId = 1, 2, 3
	res := AnalyzeEscape(
		[]symtab.SymbolId{stackVar, returnedVar, heapVar},
		map[symtab.SymbolId]bool{returnedVar: true},
		nil,
		map[symtab.SymbolId]bool{heapVar: true},
		nil,
	)
	assert.Equal(t, StackAllocatable, res.Allocations[stackVar].Class)
	assert.Equal(t, EscapesToCaller, res.Allocations[returnedVar].Class)
	assert.Equal(t, EscapesToHeap, res.Allocations[heapVar].Class)
	assert.Equal(t, HintSuggest, res.InlineHints[stackVar])
	assert.Equal(t, HintAvoid, res.InlineHints[heapVar])
}

func TestAnalyzeEscapeRecursiveNeverInlines(t *testing.T) {
	var fn symtab.SymbolId = 1
	res := AnalyzeEscape([]symtab.SymbolId{fn}, nil, nil, nil, [][]symtab.SymbolId{{fn, 2}})
	assert.Equal(t, HintNever, res.InlineHints[fn])
}
