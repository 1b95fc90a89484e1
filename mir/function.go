// function.go defines mir.Function and its CFG of MIR instructions, per
// spec.md §4.4/§3 ("A Function owns ... a CFG whose blocks contain
// instructions and a terminator, a register-type table, source location,
// and an attribute record").
package mir

import (
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// CallingConvention distinguishes native calls from C-ABI calls.
type CallingConvention int

const (
	ConvNative CallingConvention = iota
	ConvC
)

// Linkage controls a function's external visibility.
type Linkage int

const (
	LinkagePrivate Linkage = iota
	LinkagePublic
	LinkageExternal
)

// FunctionKind tags special-purpose functions the backend treats
// differently from ordinary user code.
type FunctionKind int

const (
	KindNormal FunctionKind = iota
	KindExternC
	KindMirWrapper
)

// InlineHint mirrors the escape analyzer's inlining hint vocabulary so MIR
// attributes can carry it straight through from analysis.
type InlineHint int

const (
	InlineNone InlineHint = iota
	InlineSuggest
	InlineAvoid
	InlineAlways
	InlineNever
)

// Param is one function parameter's MIR-level signature entry.
type Param struct {
	Name   string
	Type   types.TypeId
	Reg    Reg
	ByRef  bool
}

// Attributes is a function's non-signature metadata.
type Attributes struct {
	Linkage      Linkage
	InlineHint   InlineHint
	Kind         FunctionKind
}

// Block is one MIR basic block: straight-line instructions plus the
// terminator inherited from the semantic CFG (spec.md §3's Terminator
// shape is reused unchanged, since MIR lowering does not change control
// flow shape, only instruction content).
type Block struct {
	ID          semgraph.BlockId
	Instrs      []Instr
	Terminator  semgraph.Terminator
}

// FunctionId identifies a function within a Module.
type FunctionId uint32

// Function is one MIR function.
type Function struct {
	ID                FunctionId
	Name              string
	Params            []Param
	ReturnType        types.TypeId
	CallingConvention CallingConvention
	CanThrow          bool
	TypeParams        []string
	UsesSRet          bool

	Blocks     map[semgraph.BlockId]*Block
	Entry      semgraph.BlockId
	RegTypes   map[Reg]types.TypeId

	SourceFile string
	SourceLine int

	Attrs Attributes

	// TypeParamTagFixups records registers whose value must become a
	// concrete runtime type tag once the type is known, per spec.md §4.5.
	TypeParamTagFixups []TagFixup

	nextReg Reg
}

// TagFixup is one deferred type-tag placeholder, spec.md §4.5.
type TagFixup struct {
	Reg       Reg
	ParamName string
}

// NewFunction returns an empty function with a fresh unlabeled entry
// block, matching the builder contract's "creating the first labeled
// block reuses the function's pre-existing unlabeled entry block" rule.
func NewFunction(id FunctionId, name string) *Function {
	entry := semgraph.BlockId(0)
	f := &Function{
		ID:       id,
		Name:     name,
		Blocks:   map[semgraph.BlockId]*Block{entry: {ID: entry}},
		Entry:    entry,
		RegTypes: map[Reg]types.TypeId{},
	}
	return f
}

// NewReg allocates a fresh register and records its type.
func (f *Function) NewReg(t types.TypeId) Reg {
	r := f.nextReg
	f.nextReg++
	f.RegTypes[r] = t
	return r
}

// IsExtern reports whether f is an extern-function declaration, per
// spec.md §4.4: calling_convention=C, linkage=External, and kind=ExternC.
// Its blocks are not inspected.
func (f *Function) IsExtern() bool {
	return f.CallingConvention == ConvC && f.Attrs.Linkage == LinkageExternal && f.Attrs.Kind == KindExternC
}
