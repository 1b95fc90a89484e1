// Package diagfmt defines the diagnostics-formatter contract the core
// consumes but does not implement (spec.md §6, §1 Non-goals). The core
// never constructs formatted strings directly — it only calls Formatter.
package diagfmt

import "github.com/blade-lang/bladec/diag"

// Formatter renders a Diagnostic against a source map (file name -> file
// contents) into text suitable for an error channel.
type Formatter interface {
	Format(sourceMap map[string]string, d diag.Diagnostic) string
}
