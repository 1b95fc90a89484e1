// lower.go implements a deliberately scoped DFG->MIR lowering: straight-line,
// phi-free functions only. mir.Op has no phi or generic move/copy
// instruction, so turning a branching function's SSA phis into MIR requires
// out-of-SSA copy insertion at predecessor block ends — a real backend
// feature this package does not yet implement. Rejecting phi-bearing DFGs
// here is honest about that gap rather than silently mis-lowering them.
package mir

import (
	"fmt"
	"sort"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// LowerStraightLineDFG lowers dfg's nodes at b's current insertion point,
// then sets a Return terminator whose value is the register of the DFG
// Return node's input, if it has one. cfg is only checked to have a single
// block; its terminator is not read. wordType is the MIR type given to every
// value — this lowering has no access to TAST's per-expression TypeId, so
// it is only suitable for demonstrating the CFG/DFG/MIR pipeline wiring on
// a monomorphic scalar function, not for general code generation.
func LowerStraightLineDFG(b *Builder, cfg *semgraph.CFG, dfg *semgraph.DFG, wordType types.TypeId) error {
	if len(cfg.Blocks) != 1 {
		return fmt.Errorf("mir: LowerStraightLineDFG requires a single-block CFG, got %d blocks", len(cfg.Blocks))
	}
	for _, n := range dfg.Nodes {
		if n.Kind == semgraph.NodePhi {
			return fmt.Errorf("mir: cannot lower phi node %d: straight-line lowering has no out-of-SSA support", n.ID)
		}
	}

	regs := map[semgraph.NodeId]Reg{}
	var returnReg Reg
	hasReturn := false

	for _, id := range topoOrder(dfg) {
		n := dfg.Nodes[id]
		switch n.Kind {
		case semgraph.NodeConstant:
			regs[id] = b.Const(n.Literal, wordType)

		case semgraph.NodeParameter, semgraph.NodeVarRead:
			// This scoped lowering has no binding from a DFG read back to
			// the concrete MIR register a parameter or a prior def
			// produced elsewhere; materialize an explicit undefined value
			// so every later reference still resolves to a register.
			regs[id] = b.Undef(wordType)

		case semgraph.NodeBinaryOp:
			if len(n.Inputs) != 2 {
				return fmt.Errorf("mir: binary node %d has %d inputs, want 2", n.ID, len(n.Inputs))
			}
			op, ok := binOpFor(n.Op)
			if !ok {
				return fmt.Errorf("mir: unsupported binary operator %q", n.Op)
			}
			regs[id] = b.BinOp(op, regs[n.Inputs[0]], regs[n.Inputs[1]], wordType)

		case semgraph.NodeUnaryOp:
			if len(n.Inputs) != 1 {
				return fmt.Errorf("mir: unary node %d has %d inputs, want 1", n.ID, len(n.Inputs))
			}
			op, ok := unOpFor(n.Op)
			if !ok {
				return fmt.Errorf("mir: unsupported unary operator %q", n.Op)
			}
			regs[id] = b.UnOp(op, regs[n.Inputs[0]], wordType)

		case semgraph.NodeCall:
			// Callee resolution belongs to a full lowering pass (it needs
			// the call graph's CallTarget, not just the DFG node); this
			// scoped pass only preserves that the call produced a value.
			regs[id] = b.Undef(wordType)

		case semgraph.NodeLoad:
			if len(n.Inputs) != 1 {
				regs[id] = b.Undef(wordType)
				continue
			}
			regs[id] = b.Load(regs[n.Inputs[0]], wordType)

		case semgraph.NodeStore:
			if len(n.Inputs) == 2 {
				b.Store(regs[n.Inputs[0]], regs[n.Inputs[1]])
			}

		case semgraph.NodeReturn:
			if len(n.Inputs) == 1 {
				returnReg = regs[n.Inputs[0]]
				hasReturn = true
			}
		}
	}

	term := semgraph.Terminator{Kind: semgraph.TermReturn, HasReturnValue: hasReturn}
	if hasReturn {
		term.ReturnValue = int(returnReg)
	}
	b.SetTerminator(term)
	return nil
}

// topoOrder returns dfg's nodes in dependency order (every node's Inputs
// appear before it), the order LowerStraightLineDFG needs since a node's
// own NodeId does not reflect lowering order — lowerExpr in semgraph/dfg.go
// allocates a parent node before recursing into its operands.
func topoOrder(dfg *semgraph.DFG) []semgraph.NodeId {
	ids := make([]semgraph.NodeId, 0, len(dfg.Nodes))
	for id := range dfg.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	visited := map[semgraph.NodeId]bool{}
	order := make([]semgraph.NodeId, 0, len(ids))
	var visit func(id semgraph.NodeId)
	visit = func(id semgraph.NodeId) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, in := range dfg.Nodes[id].Inputs {
			visit(in)
		}
		order = append(order, id)
	}
	for _, id := range ids {
		visit(id)
	}
	return order
}

func binOpFor(op string) (BinOpKind, bool) {
	switch op {
	case "+":
		return BinAdd, true
	case "-":
		return BinSub, true
	case "*":
		return BinMul, true
	case "/":
		return BinDiv, true
	case "%":
		return BinRem, true
	case "&":
		return BinAnd, true
	case "|":
		return BinOr, true
	case "^":
		return BinXor, true
	case "<<":
		return BinShl, true
	case ">>":
		return BinShr, true
	}
	return 0, false
}

func unOpFor(op string) (UnOpKind, bool) {
	switch op {
	case "-":
		return UnNeg, true
	case "!":
		return UnNot, true
	}
	return 0, false
}
