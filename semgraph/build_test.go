package semgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/tast"
)

func TestBuildFunctionRunsCFGValidateDFGInOrder(t *testing.T) {
	cfg, vr, dfg, err := BuildFunction(ifElseSameVarFunction())
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Empty(t, vr.Errs)
	assert.NotNil(t, dfg)
}

func TestBuildFunctionSurfacesCFGBuilderErrors(t *testing.T) {
	// A switch with no cases is a hard error BuildCFG itself raises (see
	// cfg.go), so BuildFunction must propagate it rather than panicking or
	// attempting to Validate/BuildDFG a nil CFG.
	fn := &tast.Function{
		Name: "badswitch",
		Body: []tast.Stmt{{Kind: tast.StmtSwitch, Expr: -1}},
	}
	_, _, dfg, err := BuildFunction(fn)
	require.Error(t, err)
	assert.Nil(t, dfg)
}
