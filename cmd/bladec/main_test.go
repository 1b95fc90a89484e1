package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/bundle"
	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/parser"
	"github.com/blade-lang/bladec/pipeline"
	"github.com/blade-lang/bladec/semgraph"
)

type testNode struct{}

func (testNode) Kind() string            { return "file" }
func (testNode) Span() parser.Span       { return parser.Span{} }
func (testNode) Children() []parser.Node { return nil }

type testSpans struct{}

func (testSpans) At(offset int) parser.Span { return parser.Span{} }

type testAST struct{}

func (testAST) Root() parser.Node       { return testNode{} }
func (testAST) Spans() parser.SpanTable { return testSpans{} }

type testFrontend struct{}

func (testFrontend) Parse(path string, source []byte) (parser.AST, error) {
	return testAST{}, nil
}

func testTastBuilder(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*mir.Module, error) {
	m := mir.NewModule(filepath.Base(path))
	main := m.DeclareFunction("main")
	main.Blocks[main.Entry].Terminator = semgraph.Terminator{Kind: semgraph.TermReturn}
	return m, nil
}

func TestRunBuildProducesBundle(t *testing.T) {
	pipeline.RegisterFrontend("test-lang", testFrontend{})
	pipeline.RegisterTastBuilder("test-lang", testTastBuilder)

	dir := t.TempDir()
	src := filepath.Join(dir, "prog.bl")
	require.NoError(t, os.WriteFile(src, []byte("fn main() {}"), 0644))
	out := filepath.Join(dir, "out.rzb")

	flagOutput = out
	flagOpt = 0
	flagStrip = false
	flagCompress = false
	flagCache = false
	flagCacheDir = filepath.Join(dir, ".cache")
	flagVerbose = false
	flagLanguage = "test-lang"

	err := runBuild(nil, []string{src})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	b, err := bundle.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "main", b.Header.EntryFunction)
}

func TestRunBuildRejectsBadOptLevel(t *testing.T) {
	flagOpt = 9
	defer func() { flagOpt = 0 }()
	err := runBuild(nil, []string{"whatever.bl"})
	assert.Error(t, err)
}

func TestRunBuildErrorsWithoutRegisteredLanguage(t *testing.T) {
	flagOpt = 0
	flagLanguage = "no-such-language"
	defer func() { flagLanguage = "blade" }()
	err := runBuild(nil, []string{"whatever.bl"})
	assert.Error(t, err)
}
