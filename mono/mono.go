// mono.go implements the monomorphizer of spec.md §4.5: lazy/exhaustive
// generic specialization with mangled naming, a transitive-fixup closure,
// and type-tag resolution, one specialization per distinct
// (base_function, concrete_type_args) pair.
//
// The transitive-fixup closure reuses the BFS-over-dependents shape of
// `analyzer/touchpoint.go`'s `applyTransitiveDependencies` (which walks a
// `callGraph map[string][]string` to propagate "this file changed" to
// every transitive dependent) — here the same walk propagates "this
// function has deferred type-tag fixups" to every transitive caller that
// specializes it.
package mono

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// Request is one recorded specialization request: a generic function and
// a concrete type-argument list, plus every call site asking for it.
type Request struct {
	Generic  mir.FunctionId
	Args     []types.TypeId
	CallSites []CallSiteRef
}

// CallSiteRef locates one call instruction to rewrite once its target is
// specialized.
type CallSiteRef struct {
	Caller mir.FunctionId
	Block  uint32
	Instr  int
}

// key canonicalizes (generic, args) for map lookups; args order matters
// for a request key (positional type arguments), unlike the transitive
// fixup cache key which sorts by parameter name.
func key(generic mir.FunctionId, args []types.TypeId) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%d", a)
	}
	return fmt.Sprintf("%d(%s)", generic, strings.Join(parts, ","))
}

// Monomorphizer drives the four-step algorithm of spec.md §4.5.
type Monomorphizer struct {
	module *mir.Module

	requests map[string]*Request
	// specialized maps a request key to the FunctionId of the clone already
	// produced for it, satisfying "a generic function is specialized once
	// per distinct (base_function, concrete_type_args)".
	specialized map[string]mir.FunctionId

	// fixupCache prevents duplicate transitive-fixup specializations, keyed
	// by (generic_id, args_sorted_by_param_name) per spec.md §4.5.
	fixupCache map[string]mir.FunctionId
}

// NewMonomorphizer returns a monomorphizer targeting m.
func NewMonomorphizer(m *mir.Module) *Monomorphizer {
	return &Monomorphizer{
		module:      m,
		requests:    map[string]*Request{},
		specialized: map[string]mir.FunctionId{},
		fixupCache:  map[string]mir.FunctionId{},
	}
}

// genericFunctions returns every function with non-empty TypeParams, step
// 1 of spec.md §4.5's algorithm.
func (mm *Monomorphizer) genericFunctions() []*mir.Function {
	var out []*mir.Function
	for _, fn := range mm.module.Functions {
		if len(fn.TypeParams) > 0 {
			out = append(out, fn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordCallSite registers a request for (generic, args) from one call
// site, step 2 of spec.md §4.5's algorithm.
func (mm *Monomorphizer) RecordCallSite(generic mir.FunctionId, args []types.TypeId, site CallSiteRef) {
	k := key(generic, args)
	req, ok := mm.requests[k]
	if !ok {
		req = &Request{Generic: generic, Args: args}
		mm.requests[k] = req
	}
	req.CallSites = append(req.CallSites, site)
}

// MangledName derives a specialization's name from its base function and
// concrete type arguments.
func MangledName(base string, args []types.TypeId, tbl *types.Table) string {
	parts := make([]string, len(args))
	for i, a := range args {
		t := tbl.Get(a)
		if t != nil && t.Name != "" {
			parts[i] = t.Name
		} else {
			parts[i] = fmt.Sprintf("t%d", a)
		}
	}
	if len(parts) == 0 {
		return base
	}
	return base + "$" + strings.Join(parts, "_")
}

// Run executes steps 3-4 of spec.md §4.5's algorithm: for each recorded
// request, clone the generic function substituting type variables
// throughout every type-bearing field, generate a mangled name, register
// the clone, and rewrite every recorded call site to point at it with
// empty type_args. It returns the set of newly specialized function ids,
// in deterministic (sorted by request key) order.
func (mm *Monomorphizer) Run(tbl *types.Table, subst SubstitutionFunc) []mir.FunctionId {
	keys := make([]string, 0, len(mm.requests))
	for k := range mm.requests {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var produced []mir.FunctionId
	for _, k := range keys {
		req := mm.requests[k]
		if existing, ok := mm.specialized[k]; ok {
			produced = append(produced, existing)
			continue
		}
		generic, ok := mm.module.Functions[req.Generic]
		if !ok {
			continue
		}
		subMap := buildSubstitutionMap(generic.TypeParams, req.Args)
		clone := cloneFunction(mm.module, generic, MangledName(generic.Name, req.Args, tbl), subMap, subst)
		mm.specialized[k] = clone.ID
		produced = append(produced, clone.ID)

		for _, site := range req.CallSites {
			rewriteCallSite(mm.module, site, clone.ID)
		}
	}
	return produced
}

// SubstitutionFunc resolves a type that may contain type variables into
// its concrete form given a substitution map from type-parameter name to
// concrete TypeId. Supplied by the caller since only the type table (C2)
// knows how to rebuild a composite type with substituted components.
type SubstitutionFunc func(t types.TypeId, subMap map[string]types.TypeId) types.TypeId

func buildSubstitutionMap(params []string, args []types.TypeId) map[string]types.TypeId {
	m := map[string]types.TypeId{}
	for i, p := range params {
		if i < len(args) {
			m[p] = args[i]
		}
	}
	return m
}

// cloneFunction substitutes type variables throughout the signature,
// locals (register-type map), and instruction bodies' type-bearing
// fields: Alloc.ty, Load.ty, Cast.{from,to}, BitCast.ty,
// CallDirect.type_args, GetElementPtr.ty, and struct/union fields
// recursively, per spec.md §4.5 step 3.
func cloneFunction(m *mir.Module, generic *mir.Function, name string, subMap map[string]types.TypeId, subst SubstitutionFunc) *mir.Function {
	clone := m.DeclareFunction(name)
	clone.CallingConvention = generic.CallingConvention
	clone.CanThrow = generic.CanThrow
	clone.UsesSRet = generic.UsesSRet
	clone.SourceFile = generic.SourceFile
	clone.SourceLine = generic.SourceLine
	clone.Attrs = generic.Attrs
	clone.TypeParams = nil // monomorphized: no remaining type parameters
	clone.Entry = generic.Entry

	applySub := func(t types.TypeId) types.TypeId {
		if subst == nil {
			return t
		}
		return subst(t, subMap)
	}

	clone.ReturnType = applySub(generic.ReturnType)
	clone.Params = make([]mir.Param, len(generic.Params))
	for i, p := range generic.Params {
		clone.Params[i] = mir.Param{Name: p.Name, Type: applySub(p.Type), Reg: p.Reg, ByRef: p.ByRef}
	}

	clone.RegTypes = map[mir.Reg]types.TypeId{}
	for r, t := range generic.RegTypes {
		clone.RegTypes[r] = applySub(t)
	}

	clone.Blocks = map[semgraph.BlockId]*mir.Block{}
	for id, blk := range generic.Blocks {
		nb := &mir.Block{ID: id, Terminator: blk.Terminator}
		nb.Instrs = make([]mir.Instr, len(blk.Instrs))
		for i, ins := range blk.Instrs {
			nb.Instrs[i] = substituteInstr(ins, applySub)
		}
		clone.Blocks[id] = nb
	}

	for _, fx := range generic.TypeParamTagFixups {
		if _, resolved := subMap[fx.ParamName]; !resolved {
			clone.TypeParamTagFixups = append(clone.TypeParamTagFixups, fx)
		}
	}

	return clone
}

// substituteInstr rewrites every type-bearing field named in spec.md
// §4.5 step 3.
func substituteInstr(ins mir.Instr, applySub func(types.TypeId) types.TypeId) mir.Instr {
	ins.ConstType = applySub(ins.ConstType)
	ins.ValueType = applySub(ins.ValueType)
	ins.FromType = applySub(ins.FromType)
	ins.ToType = applySub(ins.ToType)
	if len(ins.TypeArgs) > 0 {
		newArgs := make([]types.TypeId, len(ins.TypeArgs))
		for i, a := range ins.TypeArgs {
			newArgs[i] = applySub(a)
		}
		ins.TypeArgs = newArgs
	}
	return ins
}

func rewriteCallSite(m *mir.Module, site CallSiteRef, target mir.FunctionId) {
	caller, ok := m.Functions[site.Caller]
	if !ok {
		return
	}
	blk, ok := caller.Blocks[semgraph.BlockId(site.Block)]
	if !ok || site.Instr < 0 || site.Instr >= len(blk.Instrs) {
		return
	}
	instr := blk.Instrs[site.Instr]
	if instr.Op != mir.OpCallDirect {
		return
	}
	instr.Callee = uint32(target)
	instr.TypeArgs = nil
	blk.Instrs[site.Instr] = instr
}
