// rzb.go implements the `.rzb` bundle format of spec.md §4.7.2: tree-shaking
// from an entry function, optimization-level application, and serialization
// with an optional compressed payload.
//
// Grounded on the teacher's `afs.Service`-based atomic write idiom (package
// cache's Store.Put) for on-disk output, and on the pack's gopkg.in/yaml.v3
// precedent for the wire encoding. Tree-shaking's call-graph BFS reuses the
// same "forward reachability from roots" shape as
// analysis.FindUnreachableFunctions (analysis/deadcode.go), specialized to
// collect the *reachable* set to keep rather than the unreachable set to
// flag.
package bundle

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/blade-lang/bladec/mir"
	"github.com/blade-lang/bladec/optimize"
)

// OptLevel is the optimization level applied to surviving modules.
type OptLevel int

const (
	OptO0 OptLevel = iota
	OptO1
	OptO2
	OptO3
)

// RemovedCounts reports what tree-shaking dropped, per kind, per spec.md
// §4.7.2 step 4.
type RemovedCounts struct {
	Functions int
	Externs   int
	Globals   int
}

// Header is the `.rzb` file's fixed preamble.
type Header struct {
	EntryModule   string `yaml:"entry_module"`
	EntryFunction string `yaml:"entry_function"`
	Compressed    bool   `yaml:"compressed"`
	OptLevel      int    `yaml:"opt_level"`
}

// Bundle is the full in-memory `.rzb` payload before serialization.
type Bundle struct {
	Header  Header            `yaml:"header"`
	Modules []*mir.Module     `yaml:"modules"`
	Removed RemovedCounts     `yaml:"-"`
}

// IsEntryFunction applies spec.md §4.7.2 step 3's default entry rule: a
// symbol named "main", "Main_main", or ending in "_main".
func IsEntryFunction(name string) bool {
	return name == "main" || name == "Main_main" || strings.HasSuffix(name, "_main")
}

// FindEntry locates the entry function across modules using the default
// rule, returning the owning module and function.
func FindEntry(modules []*mir.Module) (*mir.Module, *mir.Function, bool) {
	for _, m := range modules {
		var ids []mir.FunctionId
		for id := range m.Functions {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fn := m.Functions[id]
			if IsEntryFunction(fn.Name) {
				return m, fn, true
			}
		}
	}
	return nil, nil, false
}

// callees extracts every direct-call target FunctionId referenced by fn's
// instructions, by scanning CallDirect instructions across every block.
func callees(fn *mir.Function) []mir.FunctionId {
	var out []mir.FunctionId
	for _, b := range fn.Blocks {
		for _, ins := range b.Instrs {
			if ins.Op == mir.OpCallDirect {
				out = append(out, mir.FunctionId(ins.Callee))
			}
		}
	}
	return out
}

// funcRef names a function uniquely across the whole module set: MIR
// FunctionIds are only unique within their owning module.
type funcRef struct {
	Module string
	ID     mir.FunctionId
}

// TreeShake traverses direct calls from entry across every module,
// dropping unreachable functions and extern declarations. Every global is
// kept: reachability is tracked for functions only. Reachability is a
// forward BFS over call edges exactly like
// analysis.FindUnreachableFunctions's call-graph walk, but collecting the
// reachable set to keep.
func TreeShake(modules []*mir.Module, entryModule *mir.Module, entry *mir.Function) []*mir.Module {
	byRef := map[funcRef]*mir.Function{}
	for _, m := range modules {
		for id, fn := range m.Functions {
			byRef[funcRef{Module: m.Name, ID: id}] = fn
		}
	}

	entryRef := funcRef{Module: entryModule.Name, ID: entry.ID}
	reachable := map[funcRef]bool{entryRef: true}
	queue := []funcRef{entryRef}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		fn, ok := byRef[ref]
		if !ok {
			continue
		}
		for _, calleeID := range callees(fn) {
			// A direct call targets a function in the same module unless the
			// monomorphizer/linker has already merged everything into one
			// module set; either way the callee's FunctionId is scoped to
			// fn's own module.
			next := funcRef{Module: ref.Module, ID: calleeID}
			if reachable[next] {
				continue
			}
			reachable[next] = true
			queue = append(queue, next)
		}
	}

	out := make([]*mir.Module, 0, len(modules))
	for _, m := range modules {
		shaken := mir.NewModule(m.Name)
		for name, g := range m.Globals {
			shaken.Globals[name] = g
		}
		for id, fn := range m.Functions {
			if reachable[funcRef{Module: m.Name, ID: id}] {
				shaken.Functions[id] = fn
			}
		}
		out = append(out, shaken)
	}
	return out
}

// removedCounts computes the RemovedCounts between the original and
// shaken module sets, per spec.md §4.7.2 step 4.
func removedCounts(original, shaken []*mir.Module) RemovedCounts {
	var rc RemovedCounts
	shakenGlobals := 0
	origGlobals := 0
	for i, m := range original {
		s := shaken[i]
		for _, fn := range m.Functions {
			if _, ok := s.Functions[fn.ID]; ok {
				continue
			}
			if fn.IsExtern() {
				rc.Externs++
			} else {
				rc.Functions++
			}
		}
		origGlobals += len(m.Globals)
		shakenGlobals += len(s.Globals)
	}
	rc.Globals = origGlobals - shakenGlobals
	return rc
}

// Build produces a Bundle from modules per spec.md §4.7.2: locate the
// entry function, optionally tree-shake, run the optimizer at the given
// level, and assemble the header.
func Build(modules []*mir.Module, opt OptLevel, shake bool, compressed bool, passes []optimize.Pass) (*Bundle, error) {
	entryModule, entry, ok := FindEntry(modules)
	if !ok {
		return nil, errNoEntry
	}

	working := modules
	var removed RemovedCounts
	if shake {
		working = TreeShake(modules, entryModule, entry)
		removed = removedCounts(modules, working)
	}

	if opt > OptO0 && len(passes) > 0 {
		mgr := optimize.NewManager(passes, 16)
		for _, m := range working {
			mgr.Run(m)
		}
	}

	return &Bundle{
		Header: Header{
			EntryModule:   entryModule.Name,
			EntryFunction: entry.Name,
			Compressed:    compressed,
			OptLevel:      int(opt),
		},
		Modules: working,
		Removed: removed,
	}, nil
}

// Serialize encodes b to its `.rzb` wire form, gzip-compressing the
// payload when Header.Compressed is set.
func Serialize(b *Bundle) ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, err
	}
	if !b.Header.Compressed {
		return data, nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a `.rzb` payload, auto-detecting gzip framing via
// its magic bytes so callers don't need to track the compressed flag out
// of band.
func Deserialize(data []byte) (*Bundle, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		decompressed, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		data = decompressed
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// WriteFile persists a serialized bundle atomically (write-then-rename),
// matching cache.Store.Put's idiom (spec.md §5).
func WriteFile(ctx context.Context, path string, data []byte) error {
	fs := afs.New()
	tmp := path + ".tmp"
	if err := fs.Upload(ctx, tmp, 0644, bytes.NewReader(data)); err != nil {
		return err
	}
	return fs.Move(ctx, tmp, path)
}

type bundleError string

func (e bundleError) Error() string { return string(e) }

const errNoEntry = bundleError("no entry function found (expected \"main\", \"Main_main\", or a \"_main\" suffix)")
