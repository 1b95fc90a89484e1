package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/internal/fixtures"
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/parser"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// s1TastBuilder is a genuine (non-stub) pipeline.TastBuilder: it loads
// spec.md scenario S1 (`trace(1 + 2)`) from testdata/ and runs it through
// the real C5/C7 chain — semgraph.BuildFunction (CFG, Validate, DFG) then
// mir.LowerStraightLineDFG — instead of returning an empty mir.Module.
// The frontend-to-tast.Function step is the part a real language front
// end owns (spec.md §1/§6); this builder starts from the typed function
// directly to demonstrate the chain that follows it.
func s1TastBuilder(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*mir.Module, error) {
	fn, err := fixtures.Load("../testdata/s1_minimal_main.json")
	if err != nil {
		return nil, err
	}
	cfg, vr, dfg, err := semgraph.BuildFunction(fn)
	if err != nil {
		return nil, err
	}
	if len(vr.Errs) > 0 {
		return nil, assertErr
	}

	tbl := types.NewTable()
	word := tbl.Intern(&types.Type{Kind: types.KindI64})

	module := mir.NewModule(path)
	mirFn := module.DeclareFunction(fn.Name)
	b := mir.NewBuilder(module)
	b.BeginFunction(mirFn)
	b.CreateBlock()
	if err := mir.LowerStraightLineDFG(b, cfg, dfg, word); err != nil {
		return nil, err
	}
	return module, nil
}

func TestPipelineLowersScenarioS1EndToEnd(t *testing.T) {
	frontend := &fakeFrontend{}
	d := NewDriver(
		WithFrontend(frontend),
		WithTastBuilder(s1TastBuilder),
	)
	d.AddFile([]byte("class Main { static function main() { trace(1 + 2); } }"), "main.bl")

	results, err := d.LowerToTAST(context.Background())
	require.NoError(t, err)
	require.False(t, d.Diags.HasErrors())
	require.Len(t, results, 1)

	fn, ok := results[0].Module.FindByName("main")
	require.True(t, ok)
	entry := fn.Blocks[fn.Entry]
	require.Len(t, entry.Instrs, 4)
	assert.Equal(t, mir.OpConst, entry.Instrs[0].Op)
	assert.Equal(t, mir.OpConst, entry.Instrs[1].Op)
	assert.Equal(t, mir.OpBinOp, entry.Instrs[2].Op)
	assert.Equal(t, mir.BinAdd, entry.Instrs[2].BinOp)
	assert.Equal(t, semgraph.TermReturn, entry.Terminator.Kind)
}
