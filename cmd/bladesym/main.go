// Command bladesym is the symbol-manifest CLI of spec.md §6: it reads a
// stdlib (or other source) tree and emits a `.bsym` manifest describing
// its public type surface, per spec.md §4.7.3.
//
// Grounded on `other_examples/manifests/mvp-joe-canopy`'s go.mod
// (github.com/jward/canopy) for the Cobra root-command shape, the same
// precedent cmd/bladec uses — the teacher repository itself ships no CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blade-lang/bladec/bundle"
	"github.com/blade-lang/bladec/pipeline"
)

var (
	symOutput   string
	symList     bool
	symVerbose  bool
	symLanguage string
)

func main() {
	root := &cobra.Command{
		Use:   "bladesym <stdlib path>",
		Short: "Extract a .bsym symbol manifest from a source tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runSym,
	}
	root.Flags().StringVarP(&symOutput, "output", "o", "stdlib.bsym", "output manifest path")
	root.Flags().BoolVar(&symList, "list", false, "print discovered symbols instead of writing a manifest")
	root.Flags().BoolVarP(&symVerbose, "verbose", "v", false, "print diagnostics verbosely")
	root.Flags().StringVar(&symLanguage, "language", "blade", "registered front end to extract declarations with")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSym(cmd *cobra.Command, args []string) error {
	root := args[0]

	frontend, ok := pipeline.Frontend(symLanguage)
	if !ok {
		return fmt.Errorf("no parser.Frontend registered under %q", symLanguage)
	}
	tastFileBuilder, ok := pipeline.LookupTastFileBuilder(symLanguage)
	if !ok {
		return fmt.Errorf("no TastFileBuilder registered under %q", symLanguage)
	}

	driver := pipeline.NewDriver(
		pipeline.WithFrontend(frontend),
		pipeline.WithTastFileBuilder(tastFileBuilder),
	)

	ctx := context.Background()
	if err := driver.AddDirectory(ctx, root, true); err != nil {
		return err
	}

	files, err := driver.BuildTastFiles(ctx)
	if err != nil {
		return err
	}
	if driver.Diags.HasErrors() {
		for _, d := range driver.Diags.All() {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return errExtractFailed
	}
	if symVerbose {
		fmt.Fprintf(os.Stderr, "parsed %d file(s) under %s\n", len(files), root)
	}

	manifest := bundle.BuildManifest(driver.Types, driver.Symbols, driver.Interner, files)

	if symList {
		for _, m := range manifest.Modules {
			for _, c := range m.Classes {
				fmt.Printf("%s.%s (class)\n", m.Path, c.Name)
			}
			for _, e := range m.Enums {
				fmt.Printf("%s.%s (enum)\n", m.Path, e.Name)
			}
			for _, a := range m.Aliases {
				fmt.Printf("%s.%s (alias -> %s)\n", m.Path, a.Name, a.Underlying)
			}
		}
		return nil
	}

	data, err := bundle.SerializeManifest(manifest)
	if err != nil {
		return err
	}
	return bundle.WriteFile(ctx, symOutput, data)
}

type symError string

func (e symError) Error() string { return string(e) }

const errExtractFailed = symError("symbol extraction failed, see diagnostics above")
