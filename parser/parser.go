// Package parser defines the surface-syntax parser contract the core
// consumes but does not implement (spec.md §6, §1 Non-goals: the parser
// is an external collaborator).
package parser

// Span is a source location, byte offset plus line/column, attached to
// every AST node.
type Span struct {
	File   string
	Offset int
	Line   int
	Column int
}

// Node is one parsed syntax node. The core only ever walks a Node tree
// through Kind/Children/Span; it never depends on a concrete grammar.
type Node interface {
	Kind() string
	Span() Span
	Children() []Node
}

// SpanTable maps byte offsets back to line/column, used by diagnostics.
type SpanTable interface {
	At(offset int) Span
}

// AST is the parser's output for one source file: a root node plus its
// span table, per spec.md §6 ("Output: an AST whose nodes carry source
// spans").
type AST interface {
	Root() Node
	Spans() SpanTable
}

// Frontend parses source text into an AST. Recoverable errors attach
// span-carrying diagnostics to the returned AST's nodes (via Node.Span
// and the caller's diagnostic bag); fatal errors return a non-nil error
// immediately, per spec.md §6.
type Frontend interface {
	Parse(path string, source []byte) (AST, error)
}
