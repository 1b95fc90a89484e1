// Package types implements the compiler's canonical Type Table (spec.md §3,
// component C2): a tagged sum over primitives, pointers, references, arrays,
// slices, structs, unions, functions, type variables, generics, and vectors,
// canonicalized so structurally-equal types share one handle.
//
// The Type/Field/Method shape is adapted from inspector/graph.Type in the
// teacher repository (field/method append-and-index maps, Clone()), with a
// Kind tag replacing the teacher's reflect.Kind field so the type table can
// canonicalize on a byte-level structural hash instead of on Go's own
// reflection.
package types

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

// TypeId is a stable handle into a Table. Two handles are equal iff the
// types they name are canonically identical (spec.md §3 invariant a).
type TypeId uint32

// Invalid is the zero handle, never issued by Table.Intern.
const Invalid TypeId = 0

// Kind tags the sum-type shape of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindString
	KindPointer
	KindReference
	KindFixedArray
	KindSlice
	KindStruct
	KindUnion
	KindOpaque
	KindFunction
	KindTypeVar
	KindGeneric
	KindVector
	KindAny
)

// StructField is a named, typed, offset-carrying struct member.
type StructField struct {
	Name   string
	Type   TypeId
	Offset int
}

// UnionVariant is a named, tagged union arm carrying zero or more fields.
type UnionVariant struct {
	Name   string
	Tag    int32
	Fields []TypeId
}

// Type is the tagged sum over spec.md §3's type grammar. Only the fields
// relevant to Kind are meaningful; builders populate exactly the subset their
// Kind needs.
type Type struct {
	Kind Kind

	// Pointer/Reference/FixedArray/Slice/Vector element type.
	Elem TypeId
	// FixedArray/Vector element count.
	Count int

	// Struct/Union/Opaque name (named types, the only way cycles are
	// expressible per spec.md §3 invariant c).
	Name string
	// Struct fields.
	Fields []StructField
	// Union variants.
	Variants []UnionVariant

	// Function signature.
	Params   []TypeId
	Ret      TypeId
	Varargs  bool

	// TypeVar name.
	VarName string

	// Generic{base, args}.
	Base TypeId
	Args []TypeId

	fieldIndex map[string]int
}

// GetField looks up a struct field by name in O(1).
func (t *Type) GetField(name string) (StructField, bool) {
	if t.fieldIndex == nil {
		return StructField{}, false
	}
	idx, ok := t.fieldIndex[name]
	if !ok {
		return StructField{}, false
	}
	return t.Fields[idx], true
}

// AddField appends a field and keeps the lookup index current, mirroring
// inspector/graph.Type.AddField in the teacher repository.
func (t *Type) AddField(f StructField) {
	if t.fieldIndex == nil {
		t.fieldIndex = make(map[string]int)
	}
	t.Fields = append(t.Fields, f)
	t.fieldIndex[f.Name] = len(t.Fields) - 1
}

// Clone returns a deep copy of t, suitable for mutation by a monomorphizer
// substitution pass without aliasing the canonical table entry.
func (t *Type) Clone() *Type {
	clone := &Type{
		Kind:    t.Kind,
		Elem:    t.Elem,
		Count:   t.Count,
		Name:    t.Name,
		Ret:     t.Ret,
		Varargs: t.Varargs,
		VarName: t.VarName,
		Base:    t.Base,
	}
	clone.Fields = append([]StructField(nil), t.Fields...)
	clone.Variants = make([]UnionVariant, len(t.Variants))
	for i, v := range t.Variants {
		clone.Variants[i] = UnionVariant{Name: v.Name, Tag: v.Tag, Fields: append([]TypeId(nil), v.Fields...)}
	}
	clone.Params = append([]TypeId(nil), t.Params...)
	clone.Args = append([]TypeId(nil), t.Args...)
	if t.fieldIndex != nil {
		clone.fieldIndex = make(map[string]int, len(t.fieldIndex))
		for k, v := range t.fieldIndex {
			clone.fieldIndex[k] = v
		}
	}
	return clone
}

var hashKey = func() [32]byte {
	var k [32]byte // zero key: structural stability matters more than secrecy here
	return k
}()

// shape returns the canonical byte encoding used to hash a Type for
// structural equality (spec.md §3 invariant a). Two types built by the same
// sequence of builder calls hash identically.
func (t *Type) shape() []byte {
	buf := make([]byte, 0, 64)
	var tmp [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	putStr := func(s string) {
		putU64(uint64(len(s)))
		buf = append(buf, s...)
	}

	putU64(uint64(t.Kind))
	putU64(uint64(t.Elem))
	putU64(uint64(t.Count))
	putStr(t.Name)
	putStr(t.VarName)
	putU64(uint64(t.Ret))
	if t.Varargs {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	putU64(uint64(t.Base))

	putU64(uint64(len(t.Fields)))
	for _, f := range t.Fields {
		putStr(f.Name)
		putU64(uint64(f.Type))
		putU64(uint64(f.Offset))
	}
	putU64(uint64(len(t.Variants)))
	for _, v := range t.Variants {
		putStr(v.Name)
		putU64(uint64(v.Tag))
		putU64(uint64(len(v.Fields)))
		for _, ft := range v.Fields {
			putU64(uint64(ft))
		}
	}
	putU64(uint64(len(t.Params)))
	for _, p := range t.Params {
		putU64(uint64(p))
	}
	putU64(uint64(len(t.Args)))
	for _, a := range t.Args {
		putU64(uint64(a))
	}
	return buf
}

func shapeHash(shape []byte) uint64 {
	h, err := highwayhash.New64(hashKey[:])
	if err != nil {
		// highwayhash.New64 only errors on a malformed key; our key is a
		// fixed-size array so this is unreachable in practice.
		panic(fmt.Errorf("types: highwayhash key: %w", err))
	}
	_, _ = h.Write(shape)
	return h.Sum64()
}

// Table is the canonical Type Table: shared-read, interior-mutable-on-insert
// (spec.md §5). Intern never invalidates a previously issued TypeId.
type Table struct {
	types  []*Type // slot 0 is Invalid
	byHash map[uint64][]TypeId

	// genericCache caches instantiations keyed by (base handle, args),
	// spec.md §3 invariant b.
	genericCache map[string]TypeId

	interner interface{ Intern(string) uint32 }
}

// NewTable returns an empty Type Table.
func NewTable() *Table {
	return &Table{
		types:        []*Type{{Kind: KindVoid}},
		byHash:       make(map[uint64][]TypeId),
		genericCache: make(map[string]TypeId),
	}
}

// Intern canonicalizes t, returning the existing handle if a structurally
// equal type has already been interned, or allocating a fresh one otherwise.
func (tb *Table) Intern(t *Type) TypeId {
	shape := t.shape()
	h := shapeHash(shape)
	for _, candidate := range tb.byHash[h] {
		if string(tb.types[candidate].shape()) == string(shape) {
			return candidate
		}
	}
	id := TypeId(len(tb.types))
	stored := t.Clone()
	tb.types = append(tb.types, stored)
	tb.byHash[h] = append(tb.byHash[h], id)
	return id
}

// Get dereferences a handle issued by this table.
func (tb *Table) Get(id TypeId) *Type {
	if int(id) >= len(tb.types) {
		return nil
	}
	return tb.types[id]
}

// genericKey builds the generic-instantiation cache key for (base, args).
func genericKey(base TypeId, args []TypeId) string {
	buf := make([]byte, 0, 4+4*len(args))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(base))
	buf = append(buf, tmp[:]...)
	for _, a := range args {
		binary.LittleEndian.PutUint32(tmp[:], uint32(a))
		buf = append(buf, tmp[:]...)
	}
	return string(buf)
}

// Instantiate returns the cached generic instantiation of base with args,
// creating and caching one if it does not yet exist (spec.md §3 invariant b).
func (tb *Table) Instantiate(base TypeId, args []TypeId) TypeId {
	key := genericKey(base, args)
	if id, ok := tb.genericCache[key]; ok {
		return id
	}
	id := tb.Intern(&Type{Kind: KindGeneric, Base: base, Args: append([]TypeId(nil), args...)})
	tb.genericCache[key] = id
	return id
}

// SortedFieldNames returns a struct type's field names in declaration order,
// a helper used by the monomorphizer mangled-name builder.
func SortedFieldNames(t *Type) []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
