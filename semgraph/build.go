package semgraph

import (
	"fmt"

	"github.com/blade-lang/bladec/tast"
)

// BuildFunction runs the full per-function C5 pipeline spec.md §4.2 lays
// out: CFG construction, structural validation, then SSA/DFG construction.
// It is the one call a TastBuilder needs to turn a typed function into the
// semantic graphs analysis.Engine and MIR lowering consume — the wiring
// BuildCFG/BuildDFG never got on their own before this.
func BuildFunction(fn *tast.Function) (*CFG, ValidationResult, *DFG, error) {
	cfg, err := BuildCFG(fn)
	if err != nil {
		return nil, ValidationResult{}, nil, err
	}

	vr := Validate(cfg)
	if len(vr.Errs) > 0 {
		return cfg, vr, nil, fmt.Errorf("semgraph: %s: invalid CFG: %v", fn.Name, vr.Errs)
	}

	dfg, err := BuildDFG(fn, cfg)
	if err != nil {
		return cfg, vr, nil, err
	}
	return cfg, vr, dfg, nil
}
