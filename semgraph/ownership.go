// ownership.go implements the Ownership Graph (spec.md §3/§4.2.4): vertices
// are variables with an ownership kind and lifetime; edges are borrows and
// moves. Grounded on analyzer/linage.DataFlowEdge{Kind: Xfer} — the
// teacher's transfer edges already model "a value's identity moves from one
// identifier to another" for channel sends (analyzer/analyzer.go
// handleSend); here the same edge shape tracks ownership transfer between
// program variables instead of channel transfers.
package semgraph

import "github.com/blade-lang/bladec/symtab"

// OwnershipKind is a variable's current logical status, per spec.md §3.
type OwnershipKind int

const (
	Owned OwnershipKind = iota
	Borrowed
	BorrowedMut
	Moved
	Shared
)

// BorrowKind distinguishes the three borrow edge flavors.
type BorrowKind int

const (
	Immutable BorrowKind = iota
	Mutable
	Weak
)

// LifetimeId references the lifetime table owned by package analysis.
type LifetimeId uint32

// Vertex is one tracked variable.
type Vertex struct {
	Var      symtab.SymbolId
	Kind     OwnershipKind
	Lifetime LifetimeId
}

// BorrowEdge records a live borrow relationship.
type BorrowEdge struct {
	Borrower symtab.SymbolId
	Borrowed symtab.SymbolId
	Kind     BorrowKind
	Site     int // DFG node or expr index where the borrow occurs
}

// MoveEdge records a move, optionally into a named destination (an
// anonymous move, e.g. passing by value into a sink, has no Destination).
type MoveEdge struct {
	Source      symtab.SymbolId
	Destination symtab.SymbolId
	HasDest     bool
	Site        int
}

// OwnershipGraph is the per-function ownership graph consumed by the
// ownership analyzer in package analysis.
type OwnershipGraph struct {
	Vertices map[symtab.SymbolId]*Vertex
	Borrows  []BorrowEdge
	Moves    []MoveEdge
}

// NewOwnershipGraph returns an empty ownership graph.
func NewOwnershipGraph() *OwnershipGraph {
	return &OwnershipGraph{Vertices: map[symtab.SymbolId]*Vertex{}}
}

// Declare adds an Owned vertex for a freshly declared variable, with the
// lifetime of its enclosing scope, per spec.md §4.2.4.
func (g *OwnershipGraph) Declare(v symtab.SymbolId, scopeLifetime LifetimeId) {
	g.Vertices[v] = &Vertex{Var: v, Kind: Owned, Lifetime: scopeLifetime}
}

// Borrow adds a borrow edge and the derived lifetime constraint
// lifetime(borrower) <= lifetime(borrowed) is reported via the returned
// edge so the caller (C6's lifetime solver) can add it to the constraint
// set, per spec.md §4.2.4.
func (g *OwnershipGraph) Borrow(borrower, borrowed symtab.SymbolId, kind BorrowKind, site int) BorrowEdge {
	e := BorrowEdge{Borrower: borrower, Borrowed: borrowed, Kind: kind, Site: site}
	g.Borrows = append(g.Borrows, e)
	if v, ok := g.Vertices[borrowed]; ok {
		if kind == Mutable {
			v.Kind = BorrowedMut
		} else if v.Kind == Owned {
			v.Kind = Borrowed
		}
	}
	return e
}

// Move adds a move edge and marks the source as Moved, per spec.md §4.2.4.
func (g *OwnershipGraph) Move(src symtab.SymbolId, dst symtab.SymbolId, hasDst bool, site int) MoveEdge {
	e := MoveEdge{Source: src, Destination: dst, HasDest: hasDst, Site: site}
	g.Moves = append(g.Moves, e)
	if v, ok := g.Vertices[src]; ok {
		v.Kind = Moved
	}
	return e
}

// LiveBorrowers returns borrow edges whose borrowed variable is v and whose
// Site is still within the live range up to uptoSite (inclusive), used by
// the move-of-borrowed check in package analysis.
func (g *OwnershipGraph) LiveBorrowers(v symtab.SymbolId, uptoSite int) []BorrowEdge {
	var out []BorrowEdge
	for _, b := range g.Borrows {
		if b.Borrowed == v && b.Site <= uptoSite {
			out = append(out, b)
		}
	}
	return out
}

// MovesOf returns every move edge whose source is v, in program order.
func (g *OwnershipGraph) MovesOf(v symtab.SymbolId) []MoveEdge {
	var out []MoveEdge
	for _, m := range g.Moves {
		if m.Source == v {
			out = append(out, m)
		}
	}
	return out
}
