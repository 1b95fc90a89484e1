package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/parser"
)

type fakeNode struct{}

func (fakeNode) Kind() string           { return "file" }
func (fakeNode) Span() parser.Span      { return parser.Span{} }
func (fakeNode) Children() []parser.Node { return nil }

type fakeSpanTable struct{}

func (fakeSpanTable) At(offset int) parser.Span { return parser.Span{} }

type fakeAST struct{}

func (fakeAST) Root() parser.Node        { return fakeNode{} }
func (fakeAST) Spans() parser.SpanTable  { return fakeSpanTable{} }

type fakeFrontend struct{ calls int }

func (f *fakeFrontend) Parse(path string, source []byte) (parser.AST, error) {
	f.calls++
	return fakeAST{}, nil
}

func fakeTastBuilder(calls *int) TastBuilder {
	return func(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*mir.Module, error) {
		*calls++
		m := mir.NewModule(path)
		m.DeclareFunction("main")
		return m, nil
	}
}

func TestLowerToTASTCompilesEveryFile(t *testing.T) {
	frontend := &fakeFrontend{}
	builderCalls := 0
	d := NewDriver(
		WithFrontend(frontend),
		WithTastBuilder(fakeTastBuilder(&builderCalls)),
	)
	d.AddFile([]byte("fn main() {}"), "main.bl")
	d.AddFile([]byte("fn helper() {}"), "helper.bl")

	results, err := d.LowerToTAST(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, builderCalls)
	assert.False(t, d.Diags.HasErrors())
}

func TestLowerToTASTAccumulatesErrorsWithoutShortCircuiting(t *testing.T) {
	frontend := &fakeFrontend{}
	d := NewDriver(
		WithFrontend(frontend),
		WithTastBuilder(func(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*mir.Module, error) {
			if path == "bad.bl" {
				return nil, assertErr
			}
			return mir.NewModule(path), nil
		}),
	)
	d.AddFile([]byte("x"), "bad.bl")
	d.AddFile([]byte("y"), "good.bl")

	results, err := d.LowerToTAST(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "good.bl", results[0].Path)
	assert.True(t, d.Diags.HasErrors())
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

const assertErr = simpleError("boom")
