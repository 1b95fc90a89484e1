package pipeline

import (
	"context"

	"github.com/blade-lang/bladec/diag"
	"github.com/blade-lang/bladec/parser"
	"github.com/blade-lang/bladec/tast"
)

// TastFileBuilder builds the typed declaration tree for one file without
// continuing on to MIR, the shape bundle.BuildManifest consumes. It is a
// separate injection point from TastBuilder: producing a `.bsym` manifest
// needs only typed declarations (classes, enums, aliases), not the full
// MIR/monomorphization pipeline a `.rzb` build requires, and a front end
// may build the two representations differently.
type TastFileBuilder func(ctx context.Context, ast parser.AST, path string, diags *diag.Bag) (*tast.File, error)

// WithTastFileBuilder injects the builder BuildTastFiles calls per file.
func WithTastFileBuilder(b TastFileBuilder) Option {
	return func(d *Driver) { d.tastFileBuilder = b }
}

// BuildTastFiles parses every tracked file and builds its typed
// declaration tree, in tracked order. Like LowerToTAST, one file's
// failure is recorded in d.Diags and does not stop the rest.
func (d *Driver) BuildTastFiles(ctx context.Context) ([]*tast.File, error) {
	if d.tastFileBuilder == nil {
		return nil, errNoTastFileBuilder
	}
	if d.frontend == nil {
		return nil, errNoFrontend
	}

	var files []*tast.File
	for _, f := range d.files {
		ast, err := d.frontend.Parse(f.Path, f.Source)
		if err != nil {
			d.Diags.Errorf(diag.CodeSyntax, diag.Span{File: f.Path}, "failed to parse %s: %v", f.Path, err)
			continue
		}
		tf, err := d.tastFileBuilder(ctx, ast, f.Path, d.Diags)
		if err != nil {
			d.Diags.Errorf(diag.CodeSyntax, diag.Span{File: f.Path}, "failed to build declarations for %s: %v", f.Path, err)
			continue
		}
		files = append(files, tf)
	}
	return files, nil
}

const errNoTastFileBuilder = pipelineError("pipeline: no TastFileBuilder configured (use WithTastFileBuilder)")
