// builder.go implements the append-only MIR builder of spec.md §4.4: fresh
// registers with recorded types, a scoped "current function"/"insertion
// point", and the rule that creating the first labeled block reuses the
// function's pre-existing unlabeled entry block.
package mir

import (
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// Builder appends instructions to one module's functions, one function at
// a time.
type Builder struct {
	Module *Module

	fn          *Function
	block       semgraph.BlockId
	entryLabeled bool
}

// NewBuilder returns a builder targeting m.
func NewBuilder(m *Module) *Builder {
	return &Builder{Module: m}
}

// BeginFunction sets fn as the current function and positions the
// insertion point at its entry block.
func (b *Builder) BeginFunction(fn *Function) {
	b.fn = fn
	b.block = fn.Entry
	b.entryLabeled = false
}

// CreateBlock allocates a new block. The first call after BeginFunction
// reuses the function's pre-existing unlabeled entry block instead of
// allocating a new one, per spec.md §4.4's builder contract.
func (b *Builder) CreateBlock() semgraph.BlockId {
	if !b.entryLabeled {
		b.entryLabeled = true
		return b.fn.Entry
	}
	id := semgraph.BlockId(len(b.fn.Blocks))
	for {
		if _, exists := b.fn.Blocks[id]; !exists {
			break
		}
		id++
	}
	b.fn.Blocks[id] = &Block{ID: id}
	return id
}

// SetInsertionPoint moves the insertion point to block.
func (b *Builder) SetInsertionPoint(block semgraph.BlockId) {
	b.block = block
}

// emit appends instr to the current insertion block.
func (b *Builder) emit(instr Instr) Reg {
	blk := b.fn.Blocks[b.block]
	blk.Instrs = append(blk.Instrs, instr)
	return instr.Dest
}

// Const emits a constant-materialization instruction.
func (b *Builder) Const(value interface{}, t types.TypeId) Reg {
	dest := b.fn.NewReg(t)
	b.emit(Instr{Op: OpConst, Dest: dest, ConstValue: value, ConstType: t})
	return dest
}

// Undef emits an undefined-value placeholder of type t.
func (b *Builder) Undef(t types.TypeId) Reg {
	dest := b.fn.NewReg(t)
	b.emit(Instr{Op: OpUndef, Dest: dest, ConstType: t})
	return dest
}

// FunctionRef emits a function-pointer value referencing fn.
func (b *Builder) FunctionRef(fn FunctionId, t types.TypeId) Reg {
	dest := b.fn.NewReg(t)
	b.emit(Instr{Op: OpFunctionRef, Dest: dest, FuncRef: uint32(fn), ConstType: t})
	return dest
}

// BinOp emits a binary arithmetic/logical instruction.
func (b *Builder) BinOp(op BinOpKind, lhs, rhs Reg, resultType types.TypeId) Reg {
	dest := b.fn.NewReg(resultType)
	b.emit(Instr{Op: OpBinOp, Dest: dest, BinOp: op, LHS: lhs, RHS: rhs})
	return dest
}

// UnOp emits a unary instruction.
func (b *Builder) UnOp(op UnOpKind, operand Reg, resultType types.TypeId) Reg {
	dest := b.fn.NewReg(resultType)
	b.emit(Instr{Op: OpUnOp, Dest: dest, UnOp: op, LHS: operand})
	return dest
}

// Cmp emits a comparison; the result is always bool-typed by the caller
// passing boolType.
func (b *Builder) Cmp(op CmpKind, lhs, rhs Reg, boolType types.TypeId) Reg {
	dest := b.fn.NewReg(boolType)
	b.emit(Instr{Op: OpCmp, Dest: dest, Cmp: op, LHS: lhs, RHS: rhs})
	return dest
}

// Alloc emits a stack/heap allocation of ty, optionally sized by count
// (for array allocations); result type is Ptr<ty>, represented by
// ptrType which the caller resolves in the type table.
func (b *Builder) Alloc(ty, ptrType types.TypeId, count Reg, hasCount bool) Reg {
	dest := b.fn.NewReg(ptrType)
	b.emit(Instr{Op: OpAlloc, Dest: dest, ValueType: ty, Count: count, HasCount: hasCount})
	return dest
}

// Load emits a load of type ty through ptr.
func (b *Builder) Load(ptr Reg, ty types.TypeId) Reg {
	dest := b.fn.NewReg(ty)
	b.emit(Instr{Op: OpLoad, Dest: dest, Ptr: ptr, ValueType: ty})
	return dest
}

// Store emits a store of value through ptr; stores produce no register.
func (b *Builder) Store(ptr, value Reg) {
	b.emit(Instr{Op: OpStore, Ptr: ptr, StoreVal: value})
}

// PtrAdd emits pointer arithmetic.
func (b *Builder) PtrAdd(ptr, offset Reg, ptrType types.TypeId) Reg {
	dest := b.fn.NewReg(ptrType)
	b.emit(Instr{Op: OpPtrAdd, Dest: dest, Ptr: ptr, RHS: offset})
	return dest
}

// GetElementPtr emits an aggregate-element address computation.
func (b *Builder) GetElementPtr(base Reg, indices []int32, elemPtrType types.TypeId) Reg {
	dest := b.fn.NewReg(elemPtrType)
	b.emit(Instr{Op: OpGetElementPtr, Dest: dest, Ptr: base, Indices: indices})
	return dest
}

// CallDirect emits a direct call to callee; tailCall is a call-site
// attribute per spec.md §4.4, not a separate instruction.
func (b *Builder) CallDirect(callee FunctionId, args []Reg, typeArgs []types.TypeId, retType types.TypeId, canThrow, tailCall bool) Reg {
	dest := b.fn.NewReg(retType)
	b.emit(Instr{Op: OpCallDirect, Dest: dest, Callee: uint32(callee), Args: args, TypeArgs: typeArgs, CanThrow: canThrow, TailCall: tailCall})
	return dest
}

// CallIndirect emits a call through a function-pointer register.
func (b *Builder) CallIndirect(fn Reg, args []Reg, retType types.TypeId, canThrow, tailCall bool) Reg {
	dest := b.fn.NewReg(retType)
	b.emit(Instr{Op: OpCallIndirect, Dest: dest, IndirectFunc: fn, Args: args, CanThrow: canThrow, TailCall: tailCall})
	return dest
}

// ExtractValue reads field fieldIx out of an aggregate register.
func (b *Builder) ExtractValue(agg Reg, fieldIx int32, fieldType types.TypeId) Reg {
	dest := b.fn.NewReg(fieldType)
	b.emit(Instr{Op: OpExtractValue, Dest: dest, Struct: agg, FieldIx: fieldIx})
	return dest
}

// InsertValue returns a new aggregate with field fieldIx replaced by value.
func (b *Builder) InsertValue(agg Reg, fieldIx int32, value Reg, aggType types.TypeId) Reg {
	dest := b.fn.NewReg(aggType)
	b.emit(Instr{Op: OpInsertValue, Dest: dest, Struct: agg, FieldIx: fieldIx, StoreVal: value})
	return dest
}

// CreateStruct builds a struct value from field registers, in declaration
// order.
func (b *Builder) CreateStruct(fields []Reg, structType types.TypeId) Reg {
	dest := b.fn.NewReg(structType)
	b.emit(Instr{Op: OpCreateStruct, Dest: dest, Fields: fields})
	return dest
}

// ExtractDiscriminant reads a union value's variant tag.
func (b *Builder) ExtractDiscriminant(union Reg, tagType types.TypeId) Reg {
	dest := b.fn.NewReg(tagType)
	b.emit(Instr{Op: OpExtractDiscriminant, Dest: dest, Struct: union})
	return dest
}

// CreateUnion builds a union value tagged with variant, carrying fields.
func (b *Builder) CreateUnion(variant int32, fields []Reg, unionType types.TypeId) Reg {
	dest := b.fn.NewReg(unionType)
	b.emit(Instr{Op: OpCreateUnion, Dest: dest, Variant: variant, Fields: fields})
	return dest
}

// ExtractUnionValue reads field fieldIx out of a union's active variant.
func (b *Builder) ExtractUnionValue(union Reg, variant, fieldIx int32, fieldType types.TypeId) Reg {
	dest := b.fn.NewReg(fieldType)
	b.emit(Instr{Op: OpExtractUnionValue, Dest: dest, Struct: union, Variant: variant, FieldIx: fieldIx})
	return dest
}

// VectorOp emits one of the SIMD instructions; kind selects the concrete
// Op (e.g. OpVectorLoad, OpVectorBinOp), width is the vector's lane count.
func (b *Builder) VectorOp(kind Op, operands []Reg, width int32, resultType types.TypeId) Reg {
	dest := b.fn.NewReg(resultType)
	instr := Instr{Op: kind, Dest: dest, VectorWidth: width}
	if len(operands) > 0 {
		instr.LHS = operands[0]
	}
	if len(operands) > 1 {
		instr.RHS = operands[1]
	}
	if len(operands) > 2 {
		instr.Fields = operands[2:]
	}
	b.emit(instr)
	return dest
}

// Cast emits a value-preserving conversion (e.g. int widening, float<->int).
func (b *Builder) Cast(value Reg, from, to types.TypeId) Reg {
	dest := b.fn.NewReg(to)
	b.emit(Instr{Op: OpCast, Dest: dest, LHS: value, FromType: from, ToType: to})
	return dest
}

// BitCast emits a same-size bit reinterpretation.
func (b *Builder) BitCast(value Reg, to types.TypeId) Reg {
	dest := b.fn.NewReg(to)
	b.emit(Instr{Op: OpBitCast, Dest: dest, LHS: value, ToType: to})
	return dest
}

// Panic emits an unrecoverable-abort instruction.
func (b *Builder) Panic(message string) {
	b.emit(Instr{Op: OpPanic, PanicMessage: message})
}

// Throw emits a throw of value; MIR models exceptions as this instruction
// plus the block's Throw terminator, never cross-function unwinding.
func (b *Builder) Throw(value Reg) {
	b.emit(Instr{Op: OpThrow, ThrowValue: value})
}

// SetTerminator sets the current block's terminator.
func (b *Builder) SetTerminator(t semgraph.Terminator) {
	b.fn.Blocks[b.block].Terminator = t
}

// AddExternFixup records a deferred type-param tag fixup on the current
// function, per spec.md §4.5.
func (b *Builder) AddExternFixup(reg Reg, paramName string) {
	b.fn.TypeParamTagFixups = append(b.fn.TypeParamTagFixups, TagFixup{Reg: reg, ParamName: paramName})
}

// DeclareExtern registers fn as a C-ABI extern declaration: empty CFG,
// calling_convention=C, linkage=External, kind=ExternC. uses_sret is taken
// from the isStructReturn argument; retType's kind is not inspected. The
// builder never pre-extends i32/u32 parameters — that is strictly the
// backend's job, to avoid double-extension.
func (b *Builder) DeclareExtern(fn *Function, retType types.TypeId, isStructReturn bool) {
	fn.CallingConvention = ConvC
	fn.Attrs.Linkage = LinkageExternal
	fn.Attrs.Kind = KindExternC
	fn.ReturnType = retType
	fn.UsesSRet = isStructReturn
	delete(fn.Blocks, fn.Entry)
}
