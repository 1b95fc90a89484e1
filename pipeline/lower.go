package pipeline

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/blade-lang/bladec/cache"
	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/parser"
)

// TastBuilder lowers a parsed AST into a MIR module, carrying the file
// through TAST construction (C4), semantic-graph construction (C5),
// static analysis (C6), MIR lowering (C7), and monomorphization (C8) for
// one file. Like mono.SubstitutionFunc, this is caller-injected rather
// than owned by pipeline: only a concrete language front end knows the
// parser.Node vocabulary well enough to build a typed tree from it, and
// spec.md §1 keeps the surface grammar an external, consumed-only
// concern. pipeline.Driver only owns sequencing, caching, and diagnostic
// accumulation around whichever builder is supplied.
type TastBuilder func(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*mir.Module, error)

// WithTastBuilder injects the lowering function LowerToTAST calls per
// file.
func WithTastBuilder(b TastBuilder) Option {
	return func(d *Driver) { d.tastBuilder = b }
}

// WithCacheDir enables the `.blade` cache for LowerToTAST, short-circuiting
// unchanged files per spec.md §4.7.1.
func WithCacheDir(dir string) Option {
	return func(d *Driver) { d.cacheStore = cache.NewStore(dir) }
}

// LoweredModule is one file's MIR result plus provenance, the unit
// LowerToTAST produces per file.
type LoweredModule struct {
	Path      string
	Class     FileClass
	Module    *mir.Module
	FromCache bool
}

// LowerToTAST compiles stdlib files, then global imports, then user
// files, in the dependency order AnalyzeDependencies computes, through
// TastBuilder. Errors accumulate in d.Diags rather than short-circuiting
// the whole unit: one file's failure does not prevent the rest from
// being attempted, per spec.md §4.1. Diagnostics are never stringified
// directly here — only accumulated; formatting is the injected
// diagfmt.Formatter's job.
func (d *Driver) LowerToTAST(ctx context.Context) ([]LoweredModule, error) {
	if d.tastBuilder == nil {
		return nil, errNoTastBuilder
	}
	if d.frontend == nil {
		return nil, errNoFrontend
	}

	graph := d.AnalyzeDependencies()
	for _, cycle := range graph.Cycles {
		d.Diags.Warnf(diag.CodeCircularImport, diag.Span{}, "circular import among: %v", cycle)
	}

	byPath := map[string]*SourceFile{}
	for _, f := range d.files {
		byPath[f.Path] = f
	}

	ordered := make([]*SourceFile, 0, len(d.files))
	seen := map[string]bool{}
	for _, p := range graph.Order {
		if f, ok := byPath[p]; ok {
			ordered = append(ordered, f)
			seen[p] = true
		}
	}
	// Dependency analysis leaves files in or behind an import cycle out of
	// Order; append those in original tracked order.
	for _, f := range d.files {
		if !seen[f.Path] {
			ordered = append(ordered, f)
		}
	}
	// Stdlib first, then global imports, then user files; the stable sort
	// keeps dependency order within each class.
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Class < ordered[j].Class })

	var results []LoweredModule
	for _, f := range ordered {
		lowered, fromCache, err := d.lowerOne(ctx, f)
		if err != nil {
			d.Diags.Errorf(diag.CodeSyntax, diag.Span{File: f.Path}, "failed to lower %s: %v", f.Path, err)
			continue
		}
		results = append(results, LoweredModule{Path: f.Path, Class: f.Class, Module: lowered, FromCache: fromCache})
	}
	return results, nil
}

func (d *Driver) lowerOne(ctx context.Context, f *SourceFile) (*mir.Module, bool, error) {
	sourceTimestamp := fileModTime(f.Path)

	if d.cacheStore != nil {
		if mod, _, ok, err := d.cacheStore.Get(ctx, f.Path, d.compilerVersion, sourceTimestamp); err == nil && ok {
			return mod, true, nil
		}
	}

	ast, err := d.frontend.Parse(f.Path, f.Source)
	if err != nil {
		return nil, false, err
	}
	module, err := d.tastBuilder(ctx, ast, f.Path, d.Diags)
	if err != nil {
		return nil, false, err
	}

	if d.cacheStore != nil {
		meta := cache.Metadata{
			ModuleName:       module.Name,
			SourcePath:       f.Path,
			SourceTimestamp:  sourceTimestamp,
			CompileTimestamp: time.Now().Unix(),
			Dependencies:     f.Imports,
			CompilerVersion:  d.compilerVersion,
		}
		_ = d.cacheStore.Put(ctx, f.Path, module, meta)
	}
	return module, false, nil
}

// fileModTime reads a file's modification time as seconds since epoch,
// returning 0 (always-stale) if the file cannot be stat'd — e.g. a
// buffer added via AddFile that was never backed by a real path.
func fileModTime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

type pipelineError string

func (e pipelineError) Error() string { return string(e) }

const (
	errNoTastBuilder = pipelineError("pipeline: no TastBuilder configured (use WithTastBuilder)")
	errNoFrontend    = pipelineError("pipeline: no parser.Frontend configured (use WithFrontend)")
	errNoCacheStore  = pipelineError("pipeline: no cache store configured (use WithCacheDir)")
)
