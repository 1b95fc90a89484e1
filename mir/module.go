// module.go defines mir.Module, which owns a program's functions, extern
// declarations, and globals, per spec.md §3.
package mir

import "github.com/blade-lang/bladec/types"

// Global is a module-level variable.
type Global struct {
	Name string
	Type types.TypeId
	Init interface{}
}

// Module owns every function compiled from one source file (or, after
// bundling, one merged program), per spec.md §3 ("An IrModule owns:
// functions, extern-function declarations, and globals").
type Module struct {
	Name      string
	Functions map[FunctionId]*Function
	Globals   map[string]*Global

	nextFuncID FunctionId
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Functions: map[FunctionId]*Function{}, Globals: map[string]*Global{}}
}

// DeclareFunction allocates a fresh FunctionId, registers an empty
// Function under it, and returns it for the builder to populate.
func (m *Module) DeclareFunction(name string) *Function {
	id := m.nextFuncID
	m.nextFuncID++
	fn := NewFunction(id, name)
	m.Functions[id] = fn
	return fn
}

// ExternFunctions returns every function in m marked as an extern
// declaration per spec.md §4.4.
func (m *Module) ExternFunctions() []*Function {
	var out []*Function
	for _, fn := range m.Functions {
		if fn.IsExtern() {
			out = append(out, fn)
		}
	}
	return out
}

// FindByName returns the first function with the given name, if any.
func (m *Module) FindByName(name string) (*Function, bool) {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}
