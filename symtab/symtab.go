// Package symtab implements the Symbol Table & Scope Tree (spec.md §3,
// component C3): declarations and lexical scopes.
//
// Scope is adapted from analyzer/linage.Scope in the teacher repository —
// same ID/Kind/parent-pointer/Start-End shape — generalized from a
// data-lineage scope (function/block/loop/if/switch) to a general lexical
// declaration scope, with Find walking the parent chain the way the
// teacher's identifier resolver does in analyzer/identifier.go.
package symtab

import "github.com/blade-lang/bladec/intern"
import "github.com/blade-lang/bladec/types"

// SymbolId identifies a declaration in a Table.
type SymbolId uint32

// Invalid is the zero handle, never issued by Table.Declare.
const Invalid SymbolId = 0

// Kind classifies what a Symbol names.
type Kind int

const (
	KindVar Kind = iota
	KindParam
	KindFunc
	KindMethod
	KindClass
	KindInterface
	KindEnum
	KindAbstract
	KindTypeAlias
	KindField
	KindImport
)

// Symbol is a single declaration: a name bound to a type within a scope.
type Symbol struct {
	ID    SymbolId
	Name  intern.SymbolId
	Kind  Kind
	Type  types.TypeId
	Scope *Scope
}

// Scope is a lexical scope in the scope tree; ID mirrors the teacher's
// hierarchical dotted-path scope IDs (e.g. "pkg.FuncName.block1").
type Scope struct {
	ID       string
	Kind     string // "module", "class", "function", "block", "loop", "if", "switch", "try", "catch"
	Name     string
	Parent   *Scope
	Start    int
	End      int
	Symbols  map[string]SymbolId
	Children []*Scope
}

// NewScope creates a child scope under parent (parent may be nil for a
// module-level root scope).
func NewScope(id, kind, name string, parent *Scope) *Scope {
	s := &Scope{ID: id, Kind: kind, Name: name, Parent: parent, Symbols: map[string]SymbolId{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare binds name to id within the scope, shadowing any declaration of
// the same name from an enclosing scope.
func (s *Scope) Declare(name string, id SymbolId) {
	s.Symbols[name] = id
}

// Find walks the parent chain looking for a binding of name, returning the
// nearest enclosing declaration — the same walk-up-the-chain contract as
// analyzer/linage.Scope.Find in the teacher repository.
func (s *Scope) Find(name string) (SymbolId, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if id, ok := cur.Symbols[name]; ok {
			return id, true
		}
	}
	return Invalid, false
}

// TopModuleScope walks up to the nearest module-kind ancestor, mirroring
// topFileScope in the teacher's analyzer package.
func TopModuleScope(s *Scope) *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == "module" {
			return cur
		}
	}
	return s
}

// Table owns every Symbol declared during a compilation unit. Like the Type
// Table, it is shared-read and interior-mutable-on-insert: a SymbolId, once
// issued, is never invalidated (spec.md §5).
type Table struct {
	symbols []Symbol // slot 0 is Invalid
	root    *Scope
}

// NewTable returns an empty symbol table rooted at a fresh module scope.
func NewTable(moduleID string) *Table {
	root := NewScope(moduleID, "module", moduleID, nil)
	return &Table{symbols: []Symbol{{}}, root: root}
}

// Root returns the table's module-level root scope.
func (t *Table) Root() *Scope { return t.root }

// Declare allocates a fresh SymbolId for sym and binds it by name in scope.
func (t *Table) Declare(scope *Scope, name string, kind Kind, typ types.TypeId, nameID intern.SymbolId) SymbolId {
	id := SymbolId(len(t.symbols))
	t.symbols = append(t.symbols, Symbol{ID: id, Name: nameID, Kind: kind, Type: typ, Scope: scope})
	scope.Declare(name, id)
	return id
}

// Get dereferences a SymbolId issued by this table.
func (t *Table) Get(id SymbolId) (Symbol, bool) {
	if id == Invalid || int(id) >= len(t.symbols) {
		return Symbol{}, false
	}
	return t.symbols[id], true
}
