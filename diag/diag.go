// Package diag models compiler diagnostics as structured records rather than
// strings, so that phases can accumulate them and a formatter (an external
// collaborator, see package diagfmt) renders them only at the boundary.
package diag

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInternal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Span locates a diagnostic in a source file.
type Span struct {
	File   string
	Offset int
	Line   int
	Column int
	Length int
}

// Label attaches a secondary span and a short message to a Diagnostic.
type Label struct {
	Span    Span
	Message string
}

// Code enumerates diagnostic kinds, grouped per spec.md §7.
type Code string

const (
	// Syntax errors are reported by the external parser; the core never
	// constructs these itself but forwards them unchanged.
	CodeSyntax Code = "syntax"

	// Type errors.
	CodeUnresolvedName        Code = "type.unresolved-name"
	CodeArityMismatch         Code = "type.arity-mismatch"
	CodeIncompatibleAssign    Code = "type.incompatible-assignment"
	CodeGenericArity          Code = "type.generic-arity"
	CodeGenericConstraint     Code = "type.generic-constraint"
	CodeGenericRecursive      Code = "type.generic-recursive-instantiation"
	CodeGenericDepthExceeded  Code = "type.generic-depth-exceeded"

	// Memory-safety violations.
	CodeUseAfterMove        Code = "ownership.use-after-move"
	CodeDoubleMove          Code = "ownership.double-move"
	CodeBorrowConflict      Code = "ownership.borrow-conflict"
	CodeMoveOfBorrowed      Code = "ownership.move-of-borrowed"
	CodeBorrowOutlivesOwner Code = "ownership.borrow-outlives-owner"
	CodeLifetimeCycle       Code = "lifetime.cycle"

	// Pipeline warnings.
	CodeUnreachableCode  Code = "pipeline.unreachable-code"
	CodeUnusedVariable   Code = "pipeline.unused-variable"
	CodeCircularImport   Code = "pipeline.circular-module-dependency"
	CodeDeadStore        Code = "pipeline.dead-store"

	// Internal errors: these indicate compiler bugs and abort the run.
	CodeGraphIntegrity       Code = "internal.graph-integrity"
	CodeInconsistentAnalysis Code = "internal.inconsistent-analysis"
	CodeSolverInternal       Code = "internal.solver"
	CodeSubMapConflict       Code = "internal.submap-conflict"
	CodeConstraintTooLarge   Code = "internal.constraint-system-too-large"
)

// Diagnostic is a single structured diagnostic record.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Primary  Span
	Message  string
	Labels   []Label
	Help     string
	Notes    []string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s (%s:%d:%d)", d.Severity, d.Code, d.Message, d.Primary.File, d.Primary.Line, d.Primary.Column)
}

// Bag accumulates diagnostics for one file or one phase without
// short-circuiting, per spec.md §7.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty Bag.
func NewBag() *Bag { return &Bag{} }

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// Errorf is a convenience for adding a plain error-severity diagnostic.
func (b *Bag) Errorf(code Code, span Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Code: code, Severity: SeverityError, Primary: span, Message: fmt.Sprintf(format, args...)})
}

// Warnf is a convenience for adding a plain warning-severity diagnostic.
func (b *Bag) Warnf(code Code, span Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Code: code, Severity: SeverityWarning, Primary: span, Message: fmt.Sprintf(format, args...)})
}

// Merge appends another bag's diagnostics into this one.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// All returns every accumulated diagnostic, in insertion order.
func (b *Bag) All() []Diagnostic { return b.items }

// HasErrors reports whether the bag contains any Error or Internal severity
// diagnostic; warnings alone never fail a phase.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError || d.Severity == SeverityInternal {
			return true
		}
	}
	return false
}

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Error implements the error interface so a Bag with errors can be returned
// directly from a phase; the returned value still carries structured
// diagnostics via All(), callers should not stringify if they can avoid it.
func (b *Bag) Error() string {
	if !b.HasErrors() {
		return ""
	}
	return fmt.Sprintf("%d diagnostic(s), first: %s", len(b.items), b.firstError())
}

func (b *Bag) firstError() string {
	for _, d := range b.items {
		if d.Severity == SeverityError || d.Severity == SeverityInternal {
			return d.String()
		}
	}
	return ""
}

// AsError returns the bag as an error if it has errors, or nil otherwise.
func (b *Bag) AsError() error {
	if b.HasErrors() {
		return b
	}
	return nil
}

// InternalError wraps a compiler-bug diagnostic as a Go error, so it is
// returned to the caller rather than accumulated in a Bag.
type InternalError struct {
	Diagnostic
}

func (e *InternalError) Error() string { return e.Diagnostic.String() }

// NewInternal builds an InternalError for an unrecoverable invariant
// violation such as a graph-integrity failure or solver bug.
func NewInternal(code Code, message string) *InternalError {
	return &InternalError{Diagnostic{Code: code, Severity: SeverityInternal, Message: message}}
}
