// Package bundle implements the `.rzb` bundle and `.bsym` symbol-manifest
// formats of spec.md §4.7.2/§4.7.3.
//
// The manifest builder adapts inspector/graph.Type/Field/Function (and
// inspector/golang.Inspector's walk-and-collect shape) from introspecting
// Go source into introspecting already type-checked tast.File values: the
// same "one record per class/interface/enum/alias, fields+methods listed
// with resolved types" shape, rebuilt against our own symbol/type tables
// instead of Go's ast package, since the manifest is extracted from typed
// Blade declarations, not from re-parsed Go source.
package bundle

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/blade-lang/bladec/intern"
	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
	"github.com/blade-lang/bladec/types"
)

// tables bundles the handle tables needed to render names from TAST
// declarations, which carry ids rather than strings.
type tables struct {
	Types   *types.Table
	Symbols *symtab.Table
	Interns *intern.Table
}

func (t tables) symbolName(id symtab.SymbolId) string {
	sym, ok := t.Symbols.Get(id)
	if !ok {
		return ""
	}
	return t.Interns.MustLookup(sym.Name)
}

// Field is one class/struct member in the manifest, adapted from
// inspector/graph.Field (Name, Type, Tag) minus the Go-specific struct
// tag, which Blade has no equivalent of.
type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Method is one callable member, adapted from inspector/graph.Function's
// (Name, Params, Results) shape.
type Method struct {
	Name       string   `yaml:"name"`
	Params     []string `yaml:"params"`
	ReturnType string   `yaml:"return_type"`
}

// ClassEntry is one class/abstract manifest record, adapted from
// inspector/graph.Type (Name, Package, Implements, Extends, Fields,
// Methods, TypeParams).
type ClassEntry struct {
	Name        string   `yaml:"name"`
	Package     string   `yaml:"package"`
	Extends     string   `yaml:"extends,omitempty"`
	Implements  []string `yaml:"implements,omitempty"`
	TypeParams  []string `yaml:"type_params,omitempty"`
	Fields      []Field  `yaml:"fields"`
	Methods     []Method `yaml:"methods"`
	Constructor *Method  `yaml:"constructor,omitempty"`
	NativeAlias string   `yaml:"native_alias,omitempty"`
}

// EnumVariant is one enum arm with its parameter types.
type EnumVariant struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params,omitempty"`
}

// EnumEntry is one enum manifest record.
type EnumEntry struct {
	Name     string        `yaml:"name"`
	Package  string        `yaml:"package"`
	Variants []EnumVariant `yaml:"variants"`
}

// AliasEntry is one type-alias manifest record.
type AliasEntry struct {
	Name       string `yaml:"name"`
	Package    string `yaml:"package"`
	Underlying string `yaml:"underlying"`
}

// AbstractEntry is one abstract-type manifest record: an underlying
// representation plus coercion methods to/from it.
type AbstractEntry struct {
	Name       string   `yaml:"name"`
	Package    string   `yaml:"package"`
	Underlying string    `yaml:"underlying"`
	FromCoerce string    `yaml:"from_coerce,omitempty"`
	ToCoerce   string    `yaml:"to_coerce,omitempty"`
	Methods    []Method `yaml:"methods"`
}

// Module is one source file's manifest entries.
type Module struct {
	Path       string          `yaml:"path"`
	Classes    []ClassEntry    `yaml:"classes"`
	Interfaces []ClassEntry    `yaml:"interfaces"`
	Enums      []EnumEntry     `yaml:"enums"`
	Aliases    []AliasEntry    `yaml:"aliases"`
	Abstracts  []AbstractEntry `yaml:"abstracts"`
}

// Manifest is the full `.bsym` symbol manifest across every module in a
// compilation unit.
type Manifest struct {
	Modules []Module `yaml:"modules"`
}

// SerializeManifest renders m as the YAML payload a `.bsym` file holds,
// the same encoding package bundle uses for `.rzb` (gopkg.in/yaml.v3).
func SerializeManifest(m Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

// DeserializeManifest parses a `.bsym` payload produced by
// SerializeManifest.
func DeserializeManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := yaml.Unmarshal(data, &m)
	return m, err
}

// BuildManifest extracts the public type surface from already
// type-checked files, per spec.md §4.7.3. Unlike full compilation this
// never touches MIR or analysis — it reads tast.File declarations only,
// so it can run on cached or freshly-lowered files alike.
func BuildManifest(tb *types.Table, st *symtab.Table, it *intern.Table, files []*tast.File) Manifest {
	t := tables{Types: tb, Symbols: st, Interns: it}
	m := Manifest{}
	for _, f := range files {
		mod := Module{Path: f.Path}
		for _, c := range f.Classes {
			mod.Classes = append(mod.Classes, classEntry(t, f.Path, c))
		}
		for _, c := range f.Interfaces {
			mod.Interfaces = append(mod.Interfaces, classEntry(t, f.Path, c))
		}
		for _, c := range f.Enums {
			mod.Enums = append(mod.Enums, enumEntry(t, f.Path, c))
		}
		for _, c := range f.Abstracts {
			mod.Abstracts = append(mod.Abstracts, abstractEntry(t, f.Path, c))
		}
		if len(f.Aliases) > 0 {
			names := make([]string, 0, len(f.Aliases))
			for name := range f.Aliases {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				mod.Aliases = append(mod.Aliases, AliasEntry{Name: name, Package: f.Path, Underlying: typeName(tb, f.Aliases[name])})
			}
		}
		m.Modules = append(m.Modules, mod)
	}
	return m
}

func classEntry(t tables, pkg string, c *tast.Class) ClassEntry {
	e := ClassEntry{
		Name:       c.Name,
		Package:    pkg,
		Extends:    c.Extends,
		Implements: c.Implements,
		TypeParams: c.TypeParams,
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, Field{Name: t.symbolName(f.Symbol), Type: typeName(t.Types, f.Type)})
	}
	for _, fn := range c.Methods {
		if fn.Name == "constructor" || fn.Name == "init" {
			ctor := methodEntry(t, fn)
			e.Constructor = &ctor
			continue
		}
		e.Methods = append(e.Methods, methodEntry(t, fn))
	}
	return e
}

func enumEntry(t tables, pkg string, c *tast.Class) EnumEntry {
	e := EnumEntry{Name: c.Name, Package: pkg}
	for _, fn := range c.Methods {
		var params []string
		for _, p := range fn.Params {
			params = append(params, typeName(t.Types, p.Type))
		}
		e.Variants = append(e.Variants, EnumVariant{Name: fn.Name, Params: params})
	}
	return e
}

func abstractEntry(t tables, pkg string, c *tast.Class) AbstractEntry {
	e := AbstractEntry{Name: c.Name, Package: pkg, Underlying: typeName(t.Types, c.Type)}
	for _, fn := range c.Methods {
		switch fn.Name {
		case "from":
			e.FromCoerce = fn.Name
		case "to":
			e.ToCoerce = fn.Name
		default:
			e.Methods = append(e.Methods, methodEntry(t, fn))
		}
	}
	return e
}

func methodEntry(t tables, fn *tast.Function) Method {
	me := Method{Name: fn.Name, ReturnType: typeName(t.Types, fn.ReturnType)}
	for _, p := range fn.Params {
		me.Params = append(me.Params, typeName(t.Types, p.Type))
	}
	return me
}

// typeName renders a TypeId as a stable, human-readable name for the
// manifest; it never allocates a fresh handle.
func typeName(tb *types.Table, id types.TypeId) string {
	if id == types.Invalid {
		return ""
	}
	t := tb.Get(id)
	if t == nil {
		return ""
	}
	switch t.Kind {
	case types.KindStruct, types.KindUnion, types.KindOpaque:
		return t.Name
	case types.KindPointer:
		return "*" + typeName(tb, t.Elem)
	case types.KindReference:
		return "&" + typeName(tb, t.Elem)
	case types.KindSlice:
		return "[]" + typeName(tb, t.Elem)
	case types.KindFixedArray:
		return typeName(tb, t.Elem)
	case types.KindGeneric:
		name := typeName(tb, t.Base)
		for _, a := range t.Args {
			name += "_" + typeName(tb, a)
		}
		return name
	case types.KindTypeVar:
		return t.VarName
	default:
		return kindName(t.Kind)
	}
}

func kindName(k types.Kind) string {
	switch k {
	case types.KindVoid:
		return "void"
	case types.KindBool:
		return "bool"
	case types.KindI8:
		return "i8"
	case types.KindI16:
		return "i16"
	case types.KindI32:
		return "i32"
	case types.KindI64:
		return "i64"
	case types.KindU8:
		return "u8"
	case types.KindU16:
		return "u16"
	case types.KindU32:
		return "u32"
	case types.KindU64:
		return "u64"
	case types.KindF32:
		return "f32"
	case types.KindF64:
		return "f64"
	case types.KindString:
		return "string"
	case types.KindAny:
		return "any"
	default:
		return "unknown"
	}
}
