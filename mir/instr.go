// instr.go defines the MIR instruction table of spec.md §4.4: typed SSA
// with 32-bit register identifiers. Grounded on the teacher's tagged-union
// idiom already used for `semgraph.Terminator` (one struct, one Op enum,
// fields that apply only to some ops left zero otherwise) rather than an
// interface-per-instruction hierarchy, since the teacher favors flat
// structs with a discriminant field over type switches on interfaces
// (see `analyzer/linage/kind.go`'s single `Kind` enum on `DataFlowEdge`).
package mir

import "github.com/blade-lang/bladec/types"

// Reg is a 32-bit SSA register identifier, unique within a function.
type Reg uint32

// Op tags the instruction table of spec.md §4.4.
type Op int

const (
	OpConst Op = iota
	OpUndef
	OpFunctionRef

	OpBinOp
	OpUnOp
	OpCmp

	OpAlloc
	OpLoad
	OpStore
	OpPtrAdd
	OpGetElementPtr

	OpCallDirect
	OpCallIndirect

	OpExtractValue
	OpInsertValue
	OpCreateStruct
	OpExtractDiscriminant
	OpCreateUnion
	OpExtractUnionValue

	OpVectorLoad
	OpVectorStore
	OpVectorBinOp
	OpVectorSplat
	OpVectorExtract
	OpVectorInsert
	OpVectorReduce
	OpVectorUnaryOp
	OpVectorMinMax

	OpCast
	OpBitCast

	OpPanic
	OpThrow
)

// BinOpKind enumerates binary arithmetic/logical operators.
type BinOpKind int

const (
	BinAdd BinOpKind = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
)

// CmpKind enumerates comparison operators; Cmp always yields a bool.
type CmpKind int

const (
	CmpEq CmpKind = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// UnOpKind enumerates unary operators.
type UnOpKind int

const (
	UnNeg UnOpKind = iota
	UnNot
)

// Instr is one MIR instruction, a tagged union over Op. Fields that do
// not apply to Op are left zero. Every instruction that yields a value
// names Dest; terminators (Return/Branch/CondBranch/Unreachable) live on
// semgraph.Terminator, not here — the CFG block's terminator field closes
// out each block.
type Instr struct {
	Op   Op
	Dest Reg

	// Values
	ConstValue interface{}
	ConstType  types.TypeId
	FuncRef    uint32 // FunctionId

	// Arithmetic
	BinOp BinOpKind
	UnOp  UnOpKind
	Cmp   CmpKind
	LHS   Reg
	RHS   Reg // UnOp/Cast/BitCast use LHS only

	// Memory
	Ptr       Reg
	Count     Reg
	HasCount  bool
	ValueType types.TypeId
	StoreVal  Reg
	Indices   []int32 // GetElementPtr

	// Control
	Callee        uint32 // FunctionId, CallDirect
	IndirectFunc  Reg    // CallIndirect
	Args          []Reg
	TypeArgs      []types.TypeId
	CanThrow      bool
	TailCall      bool

	// Aggregates
	Struct  Reg
	FieldIx int32
	Variant int32
	Fields  []Reg

	// SIMD
	VectorWidth int32
	Lane        int32

	// Conv
	FromType types.TypeId
	ToType   types.TypeId

	// Misc
	PanicMessage string
	ThrowValue   Reg
}
