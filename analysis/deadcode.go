// deadcode.go implements the dead-code analyzer of spec.md §4.3.4:
// unreachable blocks, unused variables, dead stores, and unreachable
// functions. Unreachable-block detection is grounded on
// other_examples/b41d490d_golang-tools__ssa-func.go.go's block/reachability
// bookkeeping in golang.org/x/tools/go/ssa (a real SSA form walking
// reachability from the entry block); unreachable-function detection
// reuses the call-graph BFS shape from analyzer/touchpoint.go's
// transitive-dependency walk, now run forward from declared entry points
// instead of backward from a changed file.
package analysis

import (
	"fmt"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/symtab"
)

// DeadCodeReason names why a region was flagged.
type DeadCodeReason int

const (
	ReasonUnreachableBlock DeadCodeReason = iota
	ReasonUnusedVariable
	ReasonDeadStore
	ReasonUnreachableFunction
)

// DeadRegion is one flagged region with its reason.
type DeadRegion struct {
	Reason DeadCodeReason
	Block  semgraph.BlockId
	Var    symtab.SymbolId
	Func   symtab.SymbolId
}

// FindUnreachableBlocks returns every block in c not reachable from the
// entry block, via BFS, per spec.md §4.3.4.
func FindUnreachableBlocks(c *semgraph.CFG) []DeadRegion {
	reached := map[semgraph.BlockId]bool{c.Entry: true}
	queue := []semgraph.BlockId{c.Entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		blk := c.Blocks[b]
		if blk == nil {
			continue
		}
		for succ := range blk.Succs {
			if !reached[succ] {
				reached[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	var out []DeadRegion
	for id := range c.Blocks {
		if !reached[id] {
			out = append(out, DeadRegion{Reason: ReasonUnreachableBlock, Block: id})
		}
	}
	return out
}

// FindUnusedVariables returns variables whose SSA def has an empty
// use-set, excluding any symbol in debugOnly — the heuristic spec.md
// §4.3.4 calls out for use-site classification (e.g. variables only read
// by a debug-print call site).
func FindUnusedVariables(d *semgraph.DFG, debugOnly map[symtab.SymbolId]bool) []DeadRegion {
	var out []DeadRegion
	for _, n := range d.Nodes {
		if n.Kind != semgraph.NodeVarRead && n.Kind != semgraph.NodePhi {
			continue
		}
		if len(n.Users) > 0 {
			continue
		}
		// SSAVar is semgraph's "sym#<id>" variable key.
		var sym symtab.SymbolId
		if _, err := fmt.Sscanf(n.SSAVar, "sym#%d", &sym); err == nil && debugOnly[sym] {
			continue
		}
		out = append(out, DeadRegion{Reason: ReasonUnusedVariable, Var: sym})
	}
	return out
}

// FindDeadStores returns Store nodes whose stored value has no subsequent
// Load reading it, per spec.md §4.3.4.
func FindDeadStores(d *semgraph.DFG) []DeadRegion {
	var out []DeadRegion
	loadedFrom := map[semgraph.NodeId]bool{}
	for _, n := range d.Nodes {
		if n.Kind == semgraph.NodeLoad {
			for _, in := range n.Inputs {
				loadedFrom[in] = true
			}
		}
	}
	for id, n := range d.Nodes {
		if n.Kind != semgraph.NodeStore {
			continue
		}
		if !loadedFrom[id] {
			out = append(out, DeadRegion{Reason: ReasonDeadStore, Block: n.Block})
		}
	}
	return out
}

// FindUnreachableFunctions returns every function in cg not reachable from
// entryPoints via call-graph BFS, per spec.md §4.3.4.
func FindUnreachableFunctions(cg *semgraph.CallGraph, entryPoints []symtab.SymbolId) []DeadRegion {
	reached := map[symtab.SymbolId]bool{}
	var queue []symtab.SymbolId
	for _, e := range entryPoints {
		if !reached[e] {
			reached[e] = true
			queue = append(queue, e)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, site := range cg.Sites[f] {
			targets := site.Target.PossibleTargets
			if site.Target.Direct != 0 {
				targets = append(targets, site.Target.Direct)
			}
			for _, t := range targets {
				if !reached[t] {
					reached[t] = true
					queue = append(queue, t)
				}
			}
		}
	}
	var out []DeadRegion
	for f := range cg.Sites {
		if !reached[f] {
			out = append(out, DeadRegion{Reason: ReasonUnreachableFunction, Func: f})
		}
	}
	return out
}
