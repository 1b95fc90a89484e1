// Command bladec is the bundle-builder CLI of spec.md §6's "CLI surface":
// it compiles a set of source files and produces a single `.rzb` bundle.
//
// Grounded on `other_examples/manifests/mvp-joe-canopy`'s go.mod
// (github.com/jward/canopy), the retrieval pack's other tree-sitter-backed
// source-analysis CLI, for the root-command-plus-flags Cobra shape — the
// teacher repository itself ships no CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blade-lang/bladec/bundle"
	"github.com/blade-lang/bladec/cache"
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/pipeline"
)

var (
	flagOutput   string
	flagOpt      int
	flagStrip    bool
	flagCompress bool
	flagCache    bool
	flagCacheDir string
	flagVerbose  bool
	flagLanguage string
)

func main() {
	root := &cobra.Command{
		Use:   "bladec [source files...]",
		Short: "Compile Blade source files into a .rzb bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBuild,
	}
	root.Flags().StringVarP(&flagOutput, "output", "o", "out.rzb", "output bundle path")
	root.Flags().IntVar(&flagOpt, "opt", 0, "optimization level (0-3)")
	root.Flags().BoolVar(&flagStrip, "strip", false, "tree-shake unreachable functions from the bundle")
	root.Flags().BoolVar(&flagCompress, "compress", false, "gzip-compress the bundle payload")
	root.Flags().BoolVar(&flagCache, "cache", true, "use the .blade per-module cache")
	root.Flags().StringVar(&flagCacheDir, "cache-dir", ".bladecache", "cache directory")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print diagnostics verbosely")
	root.Flags().StringVar(&flagLanguage, "language", "blade", "registered front end to compile with")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	if flagOpt < 0 || flagOpt > 3 {
		return fmt.Errorf("--opt must be between 0 and 3, got %d", flagOpt)
	}

	frontend, ok := pipeline.Frontend(flagLanguage)
	if !ok {
		return fmt.Errorf("no parser.Frontend registered under %q", flagLanguage)
	}
	builder, ok := pipeline.LookupTastBuilder(flagLanguage)
	if !ok {
		return fmt.Errorf("no TastBuilder registered under %q", flagLanguage)
	}

	opts := []pipeline.Option{
		pipeline.WithFrontend(frontend),
		pipeline.WithTastBuilder(builder),
	}
	if flagCache {
		opts = append(opts, pipeline.WithCacheDir(flagCacheDir))
	}
	driver := pipeline.NewDriver(opts...)

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		driver.AddFile(data, path)
	}

	ctx := context.Background()
	lowered, err := driver.LowerToTAST(ctx)
	if err != nil {
		return err
	}

	if driver.Diags.HasErrors() {
		printDiagnostics(driver)
		return errCompileFailed
	}

	b, err := bundle.Build(collectModules(lowered), bundle.OptLevel(flagOpt), flagStrip, flagCompress, nil)
	if err != nil {
		printDiagnostics(driver)
		return err
	}
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "entry: %s/%s; removed functions=%d externs=%d globals=%d\n",
			b.Header.EntryModule, b.Header.EntryFunction, b.Removed.Functions, b.Removed.Externs, b.Removed.Globals)
	}

	serialized, err := bundle.Serialize(b)
	if err != nil {
		return err
	}
	if err := bundle.WriteFile(ctx, flagOutput, serialized); err != nil {
		return err
	}

	if flagCache {
		store := cache.NewStore(flagCacheDir)
		stats, _ := store.CacheStats(ctx)
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "cache: %d entries, %d bytes\n", stats.Count, stats.Bytes)
		}
	}
	return nil
}

func printDiagnostics(d *pipeline.Driver) {
	for _, diagnostic := range d.Diags.All() {
		fmt.Fprintln(os.Stderr, diagnostic.String())
	}
}

// collectModules extracts the lowered MIR modules in compilation order,
// skipping any entry that failed to lower (already reported via Diags).
func collectModules(lowered []pipeline.LoweredModule) []*mir.Module {
	out := make([]*mir.Module, 0, len(lowered))
	for _, l := range lowered {
		if l.Module != nil {
			out = append(out, l.Module)
		}
	}
	return out
}

type compileError string

func (e compileError) Error() string { return string(e) }

const errCompileFailed = compileError("compilation failed, see diagnostics above")
