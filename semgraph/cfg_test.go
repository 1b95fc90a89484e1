package semgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
)

const (
	symFlagTest symtab.SymbolId = 1
	symXTest    symtab.SymbolId = 2
)

// ifElseSameVarFunction builds a minimal typed function:
//
//	var x = 0
//	if flag { x = 1 } else { x = 2 }
//	return x
//
// the exact shape the review that found the phi-keying bug cited: two
// assignments to the same source variable in different branches.
func ifElseSameVarFunction() *tast.Function {
	return &tast.Function{
		Name: "branchy",
		Exprs: []tast.Expr{
			{Kind: tast.ExprIdent, Symbol: symFlagTest}, // 0: if condition
			{Kind: tast.ExprLiteral, Literal: int64(0)}, // 1: var decl RHS
			{Kind: tast.ExprIdent, Symbol: symXTest},    // 2: var decl target
			{Kind: tast.ExprLiteral, Literal: int64(1)}, // 3: then RHS
			{Kind: tast.ExprIdent, Symbol: symXTest},    // 4: then target
			{Kind: tast.ExprLiteral, Literal: int64(2)}, // 5: else RHS
			{Kind: tast.ExprIdent, Symbol: symXTest},    // 6: else target
			{Kind: tast.ExprIdent, Symbol: symXTest},    // 7: return value
		},
		Body: []tast.Stmt{
			{Kind: tast.StmtVarDecl, Expr: 1, Target: 2},
			{
				Kind: tast.StmtIf,
				Expr: 0,
				Then: []tast.Stmt{{Kind: tast.StmtAssign, Expr: 3, Target: 4}},
				Else: []tast.Stmt{{Kind: tast.StmtAssign, Expr: 5, Target: 6}},
			},
			{Kind: tast.StmtReturn, Expr: 7},
		},
	}
}

func loopFunction() *tast.Function {
	return &tast.Function{
		Name: "looper",
		Exprs: []tast.Expr{
			{Kind: tast.ExprIdent, Symbol: symFlagTest}, // 0: while condition
			{Kind: tast.ExprIdent, Symbol: symXTest},    // 1: body read (side-effecting call arg)
		},
		Body: []tast.Stmt{
			{
				Kind: tast.StmtWhile,
				Expr: 0,
				Then: []tast.Stmt{{Kind: tast.StmtExpr, Expr: 1}},
			},
			{Kind: tast.StmtReturn, Expr: -1},
		},
	}
}

func TestBuildCFGIfElseValidates(t *testing.T) {
	cfg, err := BuildCFG(ifElseSameVarFunction())
	require.NoError(t, err)

	result := Validate(cfg)
	assert.Empty(t, result.Errs)
	// entry, then, else, merge, plus the dead tail block BuildCFG opens
	// after every return statement (only ever filled in by code that
	// follows the return in the same statement list).
	assert.Equal(t, 5, result.Stats.BlockCount)
	assert.Len(t, result.UnreachableBlocks, 1)
}

func TestBuildCFGLoopHasBackEdge(t *testing.T) {
	cfg, err := BuildCFG(loopFunction())
	require.NoError(t, err)

	result := Validate(cfg)
	assert.Empty(t, result.Errs)
	assert.Equal(t, 1, result.Stats.MaxLoopDepth)
	assert.Len(t, result.UnreachableBlocks, 1)
}

func TestValidateFlagsMismatchedSuccessors(t *testing.T) {
	cfg, err := BuildCFG(ifElseSameVarFunction())
	require.NoError(t, err)

	// Corrupt one successor edge so Validate's consistency checks fire —
	// this is the "Validate is never invoked or tested" gap made concrete.
	for id, blk := range cfg.Blocks {
		if blk.Terminator.Kind == TermBranch {
			delete(blk.Succs, blk.Terminator.ElseBlock)
			cfg.Blocks[id] = blk
			break
		}
	}

	result := Validate(cfg)
	assert.NotEmpty(t, result.Errs)
}
