package semgraph

import (
	"fmt"

	"github.com/blade-lang/bladec/symtab"
	"github.com/blade-lang/bladec/tast"
)

// NodeId identifies a DFG node within one function.
type NodeId uint32

// NodeKind tags the shape of a DFG node, per spec.md §3.
type NodeKind int

const (
	NodeConstant NodeKind = iota
	NodeParameter
	NodeVarRead
	NodePhi
	NodeBinaryOp
	NodeUnaryOp
	NodeCall
	NodeLoad
	NodeStore
	NodeReturn
)

// Node is one SSA value: produced by exactly one node, used by zero or more
// (spec.md §3 SSA invariant a).
type Node struct {
	ID             NodeId
	Kind           NodeKind
	Block          BlockId
	Inputs         []NodeId
	Users          []NodeId
	SSAVar         string // the SSA variable this node defines, "" if none
	Literal        interface{}
	Op             string
	HasSideEffects bool
}

// PhiOperand is one predecessor's contribution to a phi node — one value
// per predecessor, per spec.md §3 SSA invariant b.
type PhiOperand struct {
	Pred  BlockId
	Value NodeId
}

// DFG is the per-function data-flow graph in SSA form.
type DFG struct {
	Nodes       map[NodeId]*Node
	PhiOperands map[NodeId][]PhiOperand
	// ValueNumbers maps a canonical expression shape to its representative
	// node, enabling later CSE (spec.md §4.2.2).
	ValueNumbers map[string]NodeId
	// StmtBlock maps a TAST statement's identity (by slice index within its
	// owning list, see tastBlockKey) to its home CFG block plus branch
	// context, supporting source-level diagnostics (spec.md §4.2.2).
	StmtBlock map[string]StmtHome

	next NodeId
}

// StmtHome records which block a source statement lowered into and under
// what branch context (then/else/case/default/catch/finally).
type StmtHome struct {
	Block   BlockId
	Context string
}

func newDFG() *DFG {
	return &DFG{
		Nodes:        map[NodeId]*Node{},
		PhiOperands:  map[NodeId][]PhiOperand{},
		ValueNumbers: map[string]NodeId{},
		StmtBlock:    map[string]StmtHome{},
	}
}

func (d *DFG) newNode(kind NodeKind, block BlockId) *Node {
	id := d.next
	d.next++
	n := &Node{ID: id, Kind: kind, Block: block}
	d.Nodes[id] = n
	return n
}

func (d *DFG) addUse(user NodeId, input NodeId) {
	d.Nodes[input].Users = append(d.Nodes[input].Users, user)
}

// varKey names the SSA variable a symbol defines. Phi placement and
// renaming are both keyed by this, not by the expr-pool index of whichever
// assignment happened to mention the symbol — two assignments to the same
// symbol in different blocks must resolve to the same SSA variable.
func varKey(sym symtab.SymbolId) string {
	return fmt.Sprintf("sym#%d", sym)
}

// ssaRenamer drives the dominator-tree rename pass that turns per-block
// variable assignments into SSA defs/uses.
type ssaRenamer struct {
	fn        *tast.Function
	cfg       *CFG
	dfg       *DFG
	children  map[BlockId][]BlockId
	stacks    map[string][]NodeId
	lastValue map[BlockId]map[string]NodeId
}

// BuildDFG lowers a CFG (plus the originating typed function, for variable
// names and parameter lists) into SSA form: phi placement via dominance
// frontiers, then renaming via a dominator-tree walk, per spec.md §4.2.2.
func BuildDFG(fn *tast.Function, cfg *CFG) (*DFG, error) {
	dfg := newDFG()
	idom := Dominators(cfg)
	df := DominanceFrontier(cfg, idom)
	children := DominatorTreeChildren(cfg, idom)

	assignedIn := collectAssignedVars(fn, cfg)

	phiNodes := map[BlockId]map[string]NodeId{}
	for _, blk := range cfg.Blocks {
		phiNodes[blk.ID] = map[string]NodeId{}
	}

	for varName, defBlocks := range assignedIn {
		worklist := append([]BlockId(nil), defBlocks...)
		hasPhi := map[BlockId]bool{}
		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			for f := range df[b] {
				if hasPhi[f] {
					continue
				}
				hasPhi[f] = true
				phi := dfg.newNode(NodePhi, f)
				phi.SSAVar = varName
				phiNodes[f][varName] = phi.ID
				worklist = append(worklist, f)
			}
		}
	}

	r := &ssaRenamer{fn: fn, cfg: cfg, dfg: dfg, children: children, stacks: map[string][]NodeId{}, lastValue: map[BlockId]map[string]NodeId{}}
	for _, p := range fn.Params {
		param := dfg.newNode(NodeParameter, cfg.Entry)
		param.SSAVar = varKey(p.Symbol)
		r.push(param.SSAVar, param.ID)
	}

	r.renameBlock(cfg.Entry, phiNodes)

	// Wire phi operands: one incoming value per predecessor, using the
	// value that reached that predecessor at the end of its block.
	for blockID, vars := range phiNodes {
		for varName, phiID := range vars {
			for pred := range cfg.Blocks[blockID].Preds {
				val := r.valueAtEndOf(pred, varName, phiNodes)
				dfg.PhiOperands[phiID] = append(dfg.PhiOperands[phiID], PhiOperand{Pred: pred, Value: val})
				dfg.addUse(phiID, val)
			}
		}
	}

	return dfg, nil
}

func (r *ssaRenamer) push(name string, id NodeId) {
	r.stacks[name] = append(r.stacks[name], id)
}

func (r *ssaRenamer) top(name string) (NodeId, bool) {
	s := r.stacks[name]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

func (r *ssaRenamer) pop(name string) {
	s := r.stacks[name]
	if len(s) > 0 {
		r.stacks[name] = s[:len(s)-1]
	}
}

// valueAtEndOf is an approximation used only for phi-operand wiring: the
// top of the rename stack once the full dominator-tree walk has completed
// does not reflect "at end of pred" in general SSA construction algorithms,
// so real builds snapshot stack tops while renaming pred. For this builder
// the snapshot is taken eagerly during renameBlock (see lastValue).
func (r *ssaRenamer) valueAtEndOf(pred BlockId, varName string, phiNodes map[BlockId]map[string]NodeId) NodeId {
	if v, ok := r.lastValue[pred][varName]; ok {
		return v
	}
	if id, ok := phiNodes[pred][varName]; ok {
		return id
	}
	return 0
}

func (r *ssaRenamer) renameBlock(b BlockId, phiNodes map[BlockId]map[string]NodeId) {
	pushed := map[string]int{}
	for varName, phiID := range phiNodes[b] {
		r.push(varName, phiID)
		pushed[varName]++
	}

	for _, s := range r.cfg.Blocks[b].Stmts {
		switch s.Kind {
		case tast.StmtVarDecl, tast.StmtAssign:
			val, ok := r.lowerExpr(b, s.Expr)
			if !ok {
				continue
			}
			if sym, isSimple := r.assignedSymbol(s); isSimple {
				key := varKey(sym)
				r.push(key, val)
				pushed[key]++
			} else if addr, ok := r.lowerExpr(b, s.Target); ok {
				// Indirect assignment target (through a deref/index/selector):
				// a memory effect, not a new SSA variable.
				n := r.dfg.newNode(NodeStore, b)
				n.HasSideEffects = true
				n.Inputs = []NodeId{addr, val}
				r.dfg.addUse(n.ID, addr)
				r.dfg.addUse(n.ID, val)
			}
		case tast.StmtExpr:
			r.lowerExpr(b, s.Expr)
		}
	}

	r.lowerTerminator(b)

	if r.lastValue == nil {
		r.lastValue = map[BlockId]map[string]NodeId{}
	}
	snapshot := map[string]NodeId{}
	for name, stack := range r.stacks {
		if len(stack) > 0 {
			snapshot[name] = stack[len(stack)-1]
		}
	}
	r.lastValue[b] = snapshot

	for _, child := range r.children[b] {
		r.renameBlock(child, phiNodes)
	}

	for varName, n := range pushed {
		for i := 0; i < n; i++ {
			r.pop(varName)
		}
	}
}

// assignedSymbol reports the symbol s assigns to when its target is a plain
// identifier (the common case SSA renaming tracks). ok is false for
// indirect targets (*p = v, a[i] = v, obj.f = v), which are memory stores.
func (r *ssaRenamer) assignedSymbol(s tast.Stmt) (symtab.SymbolId, bool) {
	if s.Target < 0 || s.Target >= len(r.fn.Exprs) {
		return 0, false
	}
	target := r.fn.Exprs[s.Target]
	if target.Kind != tast.ExprIdent {
		return 0, false
	}
	return target.Symbol, true
}

// lowerTerminator lowers the expr operands a block's terminator references
// (branch condition, switch/match discriminant, return value, thrown
// exception) into DFG nodes, so side-effecting expressions in those
// positions are represented and so spec.md §3's Return node is produced.
func (r *ssaRenamer) lowerTerminator(b BlockId) {
	term := r.cfg.Blocks[b].Terminator
	switch term.Kind {
	case TermBranch:
		r.lowerExpr(b, term.Cond)
	case TermSwitch, TermPatternMatch:
		if term.Discriminant >= 0 {
			r.lowerExpr(b, term.Discriminant)
		}
	case TermReturn:
		n := r.dfg.newNode(NodeReturn, b)
		n.HasSideEffects = true
		if term.HasReturnValue {
			if val, ok := r.lowerExpr(b, term.ReturnValue); ok {
				n.Inputs = []NodeId{val}
				r.dfg.addUse(n.ID, val)
			}
		}
	case TermThrow:
		if val, ok := r.lowerExpr(b, term.ExceptionExpr); ok {
			n := r.dfg.newNode(NodeReturn, b)
			n.HasSideEffects = true
			n.Op = "throw"
			n.Inputs = []NodeId{val}
			r.dfg.addUse(n.ID, val)
		}
	}
}

// lowerExpr lowers one typed expression into its DFG node, recursing into
// operands, per the node vocabulary spec.md §3 requires (Constant,
// Parameter, Variable-read, Phi, BinaryOp, UnaryOp, Call, Load, Store,
// Return). ok is false for an absent expr (index -1, e.g. a return with no
// value), not an error condition.
func (r *ssaRenamer) lowerExpr(b BlockId, idx int) (NodeId, bool) {
	if idx < 0 || idx >= len(r.fn.Exprs) {
		return 0, false
	}
	e := r.fn.Exprs[idx]

	switch e.Kind {
	case tast.ExprLiteral:
		n := r.dfg.newNode(NodeConstant, b)
		n.Literal = e.Literal
		return n.ID, true

	case tast.ExprIdent:
		if v, ok := r.top(varKey(e.Symbol)); ok {
			return v, true
		}
		// No SSA def reached this use (e.g. a global or a forward reference);
		// record an explicit read so the value still exists in the graph.
		n := r.dfg.newNode(NodeVarRead, b)
		n.SSAVar = varKey(e.Symbol)
		return n.ID, true

	case tast.ExprBinary:
		n := r.dfg.newNode(NodeBinaryOp, b)
		n.Op = e.Op
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true

	case tast.ExprUnary:
		n := r.dfg.newNode(NodeUnaryOp, b)
		n.Op = e.Op
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true

	case tast.ExprCall:
		n := r.dfg.newNode(NodeCall, b)
		n.Op = e.Op
		n.HasSideEffects = true
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true

	case tast.ExprSelector, tast.ExprIndex, tast.ExprDeref:
		n := r.dfg.newNode(NodeLoad, b)
		n.Op = e.Op
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true

	case tast.ExprAddrOf:
		n := r.dfg.newNode(NodeUnaryOp, b)
		n.Op = "addr_of"
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true

	case tast.ExprAssign:
		// A nested assignment used as an expression value (e.g. `a = (b = 1)`):
		// lower to a store/side effect and yield the assigned value, but do
		// not push onto the rename stack — only statement-level StmtAssign
		// defines a new SSA variable.
		if len(e.Operands) < 2 {
			return 0, false
		}
		val, ok := r.lowerExpr(b, e.Operands[1])
		if !ok {
			return 0, false
		}
		addr, ok := r.lowerExpr(b, e.Operands[0])
		if ok {
			n := r.dfg.newNode(NodeStore, b)
			n.HasSideEffects = true
			n.Inputs = []NodeId{addr, val}
			r.dfg.addUse(n.ID, addr)
			r.dfg.addUse(n.ID, val)
		}
		return val, true

	case tast.ExprComposite:
		n := r.dfg.newNode(NodeCall, b)
		n.Op = "composite"
		r.lowerOperandsInto(n, b, e.Operands)
		return n.ID, true
	}

	return 0, false
}

func (r *ssaRenamer) lowerOperandsInto(n *Node, b BlockId, operands []int) {
	for _, opIdx := range operands {
		in, ok := r.lowerExpr(b, opIdx)
		if !ok {
			continue
		}
		n.Inputs = append(n.Inputs, in)
		r.dfg.addUse(n.ID, in)
	}
}

// lastValue (ssaRenamer field above) records, per block, the rename-stack
// snapshot taken at the end of that block's own statements (before
// descending into dominator-tree children) — the value phi operands from
// successors must reference.

// collectAssignedVars maps each assigned symbol to the blocks that assign
// it, keyed by the symbol the assignment target resolves to rather than by
// the statement's own expr-pool index — two assignments to the same
// variable in different blocks must collide onto one SSA variable so a phi
// node gets placed at their join block.
func collectAssignedVars(fn *tast.Function, c *CFG) map[string][]BlockId {
	out := map[string][]BlockId{}
	for _, blk := range c.Blocks {
		for _, s := range blk.Stmts {
			if s.Kind != tast.StmtVarDecl && s.Kind != tast.StmtAssign {
				continue
			}
			if s.Target < 0 || s.Target >= len(fn.Exprs) {
				continue
			}
			target := fn.Exprs[s.Target]
			if target.Kind != tast.ExprIdent {
				continue // indirect target: a memory store, not an SSA variable
			}
			name := varKey(target.Symbol)
			out[name] = append(out[name], blk.ID)
		}
	}
	return out
}
