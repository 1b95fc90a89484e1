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
	"github.com/blade-lang/bladec/parser"
	"github.com/blade-lang/bladec/pipeline"
	"github.com/blade-lang/bladec/tast"
)

type symTestNode struct{}

func (symTestNode) Kind() string            { return "file" }
func (symTestNode) Span() parser.Span       { return parser.Span{} }
func (symTestNode) Children() []parser.Node { return nil }

type symTestSpans struct{}

func (symTestSpans) At(offset int) parser.Span { return parser.Span{} }

type symTestAST struct{}

func (symTestAST) Root() parser.Node       { return symTestNode{} }
func (symTestAST) Spans() parser.SpanTable { return symTestSpans{} }

type symTestFrontend struct{}

func (symTestFrontend) Parse(path string, source []byte) (parser.AST, error) {
	return symTestAST{}, nil
}

func symTestTastFileBuilder(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*tast.File, error) {
	return &tast.File{
		Path: path,
		Classes: []*tast.Class{
			{Name: "Widget"},
		},
	}, nil
}

func TestRunSymWritesManifest(t *testing.T) {
	pipeline.RegisterFrontend("test-lang", symTestFrontend{})
	pipeline.RegisterTastFileBuilder("test-lang", symTestTastFileBuilder)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.bl"), []byte("class Widget {}"), 0644))
	out := filepath.Join(dir, "stdlib.bsym")

	symOutput = out
	symList = false
	symVerbose = false
	symLanguage = "test-lang"

	err := runSym(nil, []string{dir})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	m, err := bundle.DeserializeManifest(data)
	require.NoError(t, err)
	require.Len(t, m.Modules, 1)
	assert.Equal(t, "Widget", m.Modules[0].Classes[0].Name)
}

func TestRunSymErrorsWithoutRegisteredLanguage(t *testing.T) {
	symLanguage = "no-such-language"
	defer func() { symLanguage = "blade" }()
	err := runSym(nil, []string{t.TempDir()})
	assert.Error(t, err)
}
