// Package codegen defines the JIT code-generator backend contract the
// core consumes but does not implement (spec.md §6, §1 Non-goals).
package codegen

import "github.com/blade-lang/bladec/mir"

// Symbol is one runtime symbol the backend must be able to resolve calls
// against (e.g. an extern function's address).
type Symbol struct {
	Name    string
	Address uintptr
}

// Backend compiles and executes MIR modules. It performs ABI adjustments
// for C-linkage functions (spec.md §4.4) that MIR itself must not
// pre-apply.
type Backend interface {
	CompileModule(m *mir.Module) error
	CallMain(m *mir.Module) (int, error)
}

// New constructs a Backend seeded with the given runtime symbol table.
// Concrete backends provide their own constructor with this signature;
// this function type documents the contract spec.md §6 names.
type New func(runtimeSymbols []Symbol) Backend
