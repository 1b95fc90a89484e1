// fixup.go implements the transitive-fixup closure and type-tag
// resolution of spec.md §4.5: after direct monomorphization, every
// specialized caller that (directly or indirectly) calls a function
// carrying deferred type-tag fixups must itself be further specialized so
// the fixup can resolve to a concrete tag.
package mono

import (
	"fmt"
	"sort"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
)

// TypeTag is the concrete runtime discriminant a fixup resolves to, per
// spec.md §4.5's type-tag resolution table.
type TypeTag int32

const (
	TagPrimitiveInt TypeTag = 1
	TagBool         TypeTag = 2
	TagFloat        TypeTag = 4
	TagString       TypeTag = 5
	TagPointer      TypeTag = 6
)

// ResolveTypeTag maps a concrete type to its runtime tag: integer widths
// give 1, bool 2, f32/f64 4, and string 5. Every pointer, Ptr<u8>
// included, gives 6, since the pointee's Kind is not looked up here; any
// other kind also gives 6.
func ResolveTypeTag(t *types.Type) TypeTag {
	switch t.Kind {
	case types.KindBool:
		return TagBool
	case types.KindF32, types.KindF64:
		return TagFloat
	case types.KindString:
		return TagString
	case types.KindI8, types.KindI16, types.KindI32, types.KindI64,
		types.KindU8, types.KindU16, types.KindU32, types.KindU64:
		return TagPrimitiveInt
	case types.KindPointer:
		if t.Elem != 0 {
			// Ptr<u8> is the string representation; caller resolves t.Elem's
			// Kind before calling if it needs to distinguish, but since this
			// function only sees the pointer itself, string pointers must be
			// tagged KindString upstream. Other pointers fall through here.
		}
		return TagPointer
	default:
		return TagPointer
	}
}

// transitiveFixupClosure finds every function (directly or indirectly) calling a
// function with fixups, BFS-over-dependents, the same shape as
// `analyzer/touchpoint.go`'s `applyTransitiveDependencies`.
func transitiveFixupClosure(m *mir.Module) map[mir.FunctionId]bool {
	hasFixups := map[mir.FunctionId]bool{}
	for id, fn := range m.Functions {
		if len(fn.TypeParamTagFixups) > 0 {
			hasFixups[id] = true
		}
	}

	callers := map[mir.FunctionId][]mir.FunctionId{}
	for id, fn := range m.Functions {
		for _, blk := range fn.Blocks {
			for _, ins := range blk.Instrs {
				if ins.Op == mir.OpCallDirect {
					callee := mir.FunctionId(ins.Callee)
					callers[callee] = append(callers[callee], id)
				}
			}
		}
	}

	closure := map[mir.FunctionId]bool{}
	var queue []mir.FunctionId
	for id := range hasFixups {
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, caller := range callers[cur] {
			if !closure[caller] {
				closure[caller] = true
				queue = append(queue, caller)
			}
		}
	}
	return closure
}

// fixupKey canonicalizes (generic_id, args) sorted by parameter name, per
// spec.md §4.5's cache key for the transitive-fixup pass.
func fixupKey(generic mir.FunctionId, paramArgs map[string]types.TypeId) string {
	names := make([]string, 0, len(paramArgs))
	for n := range paramArgs {
		names = append(names, n)
	}
	sort.Strings(names)
	out := fmt.Sprintf("%d(", generic)
	for _, n := range names {
		out += fmt.Sprintf("%s=%d,", n, paramArgs[n])
	}
	return out + ")"
}

// ApplyTransitiveFixups runs the pass described in spec.md §4.5: for each
// specialized caller S in the transitive-fixup closure, it inspects every
// call in S to a function in that closure whose call site has empty
// type_args; it creates a further specialization of the callee using S's
// substitution map, inserts it, and rewrites the call. subMaps supplies
// each specialized function's own substitution map (built when it was
// cloned), so the transitive specialization can reuse the caller's
// concrete bindings for the callee's still-unresolved type parameters.
func (mm *Monomorphizer) ApplyTransitiveFixups(tbl *types.Table, subst SubstitutionFunc, subMaps map[mir.FunctionId]map[string]types.TypeId) {
	closure := transitiveFixupClosure(mm.module)
	if len(closure) == 0 {
		return
	}

	ids := make([]mir.FunctionId, 0, len(closure))
	for id := range closure {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, callerID := range ids {
		caller, ok := mm.module.Functions[callerID]
		if !ok {
			continue
		}
		callerSub := subMaps[callerID]
		if callerSub == nil {
			continue
		}
		blockIDs := make([]semgraph.BlockId, 0, len(caller.Blocks))
		for id := range caller.Blocks {
			blockIDs = append(blockIDs, id)
		}
		sort.Slice(blockIDs, func(i, j int) bool { return blockIDs[i] < blockIDs[j] })

		for _, bID := range blockIDs {
			blk := caller.Blocks[bID]
			for i, ins := range blk.Instrs {
				if ins.Op != mir.OpCallDirect || len(ins.TypeArgs) != 0 {
					continue
				}
				callee := mir.FunctionId(ins.Callee)
				if !closure[callee] && mm.module.Functions[callee] == nil {
					continue
				}
				calleeFn, ok := mm.module.Functions[callee]
				if !ok || len(calleeFn.TypeParams) == 0 {
					continue
				}

				k := fixupKey(callee, callerSub)
				specID, ok := mm.fixupCache[k]
				if !ok {
					args := make([]types.TypeId, len(calleeFn.TypeParams))
					for j, p := range calleeFn.TypeParams {
						args[j] = callerSub[p]
					}
					clone := cloneFunction(mm.module, calleeFn, MangledName(calleeFn.Name, args, tbl), callerSub, subst)
					mm.fixupCache[k] = clone.ID
					specID = clone.ID
					subMaps[clone.ID] = callerSub
				}

				blk.Instrs[i].Callee = uint32(specID)
				blk.Instrs[i].TypeArgs = nil
			}
		}
	}
}
