// Package fixtures loads the typed-function test fixtures under
// testdata/ (small JSON-described programs) into tast.Function values,
// shared by semgraph, mir, and pipeline tests that exercise the
// CFG/DFG/MIR pipeline end to end without a real language front end.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
)

type exprFixture struct {
	Kind     string      `json:"kind"`
	Op       string      `json:"op"`
	Literal  interface{} `json:"literal"`
	Symbol   uint32      `json:"symbol"`
	Operands []int       `json:"operands"`
}

type stmtFixture struct {
	Kind   string        `json:"kind"`
	Expr   int           `json:"expr"`
	Target int           `json:"target"`
	Then   []stmtFixture `json:"then"`
	Else   []stmtFixture `json:"else"`
}

type functionFixture struct {
	Name  string        `json:"name"`
	Exprs []exprFixture `json:"exprs"`
	Body  []stmtFixture `json:"body"`
}

var exprKinds = map[string]tast.ExprKind{
	"literal":   tast.ExprLiteral,
	"ident":     tast.ExprIdent,
	"binary":    tast.ExprBinary,
	"unary":     tast.ExprUnary,
	"call":      tast.ExprCall,
	"selector":  tast.ExprSelector,
	"index":     tast.ExprIndex,
	"addrof":    tast.ExprAddrOf,
	"deref":     tast.ExprDeref,
	"assign":    tast.ExprAssign,
	"composite": tast.ExprComposite,
}

var stmtKinds = map[string]tast.StmtKind{
	"expr":     tast.StmtExpr,
	"vardecl":  tast.StmtVarDecl,
	"assign":   tast.StmtAssign,
	"if":       tast.StmtIf,
	"while":    tast.StmtWhile,
	"for":      tast.StmtFor,
	"switch":   tast.StmtSwitch,
	"match":    tast.StmtMatch,
	"break":    tast.StmtBreak,
	"continue": tast.StmtContinue,
	"return":   tast.StmtReturn,
	"throw":    tast.StmtThrow,
}

// Load reads the JSON-described function fixture at path and builds the
// tast.Function it describes. literal values decode as float64 per
// encoding/json's default number representation; callers that need
// integer literals get them normalized to int64 here, since the DFG/MIR
// lowering this fixture set exercises only deals in whole numbers.
func Load(path string) (*tast.Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	var ff functionFixture
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("fixtures: %s: %w", path, err)
	}

	fn := &tast.Function{Name: ff.Name}
	for _, e := range ff.Exprs {
		kind, ok := exprKinds[e.Kind]
		if !ok {
			return nil, fmt.Errorf("fixtures: %s: unknown expr kind %q", path, e.Kind)
		}
		expr := tast.Expr{
			Kind:     kind,
			Symbol:   symtab.SymbolId(e.Symbol),
			Operands: e.Operands,
			Op:       e.Op,
		}
		if lit, ok := e.Literal.(float64); ok {
			expr.Literal = int64(lit)
		}
		fn.Exprs = append(fn.Exprs, expr)
	}
	fn.Body, err = convertStmts(path, ff.Body)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func convertStmts(path string, in []stmtFixture) ([]tast.Stmt, error) {
	out := make([]tast.Stmt, 0, len(in))
	for _, s := range in {
		kind, ok := stmtKinds[s.Kind]
		if !ok {
			return nil, fmt.Errorf("fixtures: %s: unknown stmt kind %q", path, s.Kind)
		}
		stmt := tast.Stmt{Kind: kind, Expr: s.Expr, Target: s.Target}
		var err error
		if stmt.Then, err = convertStmts(path, s.Then); err != nil {
			return nil, err
		}
		if stmt.Else, err = convertStmts(path, s.Else); err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}
