package pipeline

import (
	"context"
	"fmt"

	"github.com/blade-lang/bladec/analysis"
	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
)

// WithAnalysisCacheCapacity sizes the lifetime solver's LRU, per spec.md
// §4.3.1.
func WithAnalysisCacheCapacity(capacity int) Option {
	return func(d *Driver) { d.analysisCacheCapacity = capacity }
}

// RegisterFunctionInput records the semantic-graph inputs for fn so a
// later AnalyzeFunction call can run the four analysis passes over it.
// The TastBuilder supplies these as it lowers each function through C5.
func (d *Driver) RegisterFunctionInput(fn symtab.SymbolId, in analysis.FunctionInput, callGraph *semgraph.CallGraph, recursiveGroups [][]symtab.SymbolId) {
	if d.functionInputs == nil {
		d.functionInputs = map[symtab.SymbolId]analysis.FunctionInput{}
		d.callGraphs = map[symtab.SymbolId]*semgraph.CallGraph{}
		d.recursiveGroups = map[symtab.SymbolId][][]symtab.SymbolId{}
	}
	d.functionInputs[fn] = in
	d.callGraphs[fn] = callGraph
	d.recursiveGroups[fn] = recursiveGroups
}

// AnalyzeFunction runs lifetime solving, ownership checking, escape
// analysis, and dead-code analysis for fn in one call, the cross-analysis
// integration surface SPEC_FULL.md §9 restores from the original Rust
// implementation's cross_analysis_integration_test.rs. It serves tooling
// that only needs one function's report (e.g. an IDE hover); LowerToTAST
// does not call it.
func (d *Driver) AnalyzeFunction(fn symtab.SymbolId) (*analysis.Report, error) {
	in, ok := d.functionInputs[fn]
	if !ok {
		return nil, fmt.Errorf("pipeline: no registered analysis input for function %d", fn)
	}
	if d.engine == nil {
		capacity := d.analysisCacheCapacity
		if capacity == 0 {
			capacity = 256
		}
		d.engine = analysis.NewEngine(capacity)
	}
	result := d.engine.AnalyzeFunction(in, d.callGraphs[fn], d.recursiveGroups[fn])
	return &result, nil
}

// EngineStats reports the lifetime solver's cache-hit ratio across every
// AnalyzeFunction call so far (spec.md §4.3.1's ≥85% target metric).
func (d *Driver) EngineStats() analysis.LifetimeStatistics {
	if d.engine == nil {
		return analysis.LifetimeStatistics{}
	}
	return d.engine.Stats()
}

// Prewarm eagerly populates the `.blade` cache for every file under
// stdlibRoot, the `preblade` tool semantics SPEC_FULL.md §9 restores: a
// fresh install pays the stdlib-compile cost once, at install time,
// rather than on every user's first run.
func (d *Driver) Prewarm(ctx context.Context, stdlibRoot string) error {
	if d.cacheStore == nil {
		return errNoCacheStore
	}
	saved := d.files
	d.files = nil
	if err := d.AddDirectory(ctx, stdlibRoot, true); err != nil {
		d.files = saved
		return err
	}
	prewarmFiles := d.files
	d.files = append(saved, prewarmFiles...)

	for _, f := range prewarmFiles {
		if _, _, err := d.lowerOne(ctx, f); err != nil {
			d.Diags.Errorf(diag.CodeSyntax, diag.Span{File: f.Path}, "prewarm failed for %s: %v", f.Path, err)
		}
	}
	return nil
}
