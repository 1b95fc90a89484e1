// pass.go implements the optimization pass manager of spec.md §4.6:
// run_on_module/run_on_function with a fixed-point/cap loop. Grounded on
// other_examples/5b2eae19_kanso-lang-kanso__internal-ir-optimizations.go.go's
// OptimizationPass/OptimizationPipeline shape (Name/Description/Apply
// returning changed-bool, pipeline running passes in order and logging
// whether each one fired), generalized from "one Apply over the whole
// program" to the per-module/per-function split spec.md §4.6 asks for,
// plus the missing fixed-point loop the teacher pipeline does not have
// (it runs every pass exactly once).
package optimize

import (
	"github.com/blade-lang/bladec/mir"
)

// Pass is one optimization, run to a fixed point by the Manager.
type Pass interface {
	Name() string
	Description() string
	RunOnFunction(fn *mir.Function) bool
	RunOnModule(m *mir.Module) bool
}

// Manager runs a sequence of passes until no pass reports a change, or a
// pass-round cap is reached, per spec.md §4.6.
type Manager struct {
	passes   []Pass
	roundCap int
	lastLog  []string
}

// NewManager returns a manager with the given pass list and a round cap
// (0 uses a default of 16, generous enough that only a genuinely
// non-converging pass set would hit it).
func NewManager(passes []Pass, roundCap int) *Manager {
	if roundCap <= 0 {
		roundCap = 16
	}
	return &Manager{passes: passes, roundCap: roundCap}
}

// Log returns the human-readable trace of the last Run, one line per
// pass invocation, mirroring the teacher pipeline's progress messages.
func (m *Manager) Log() []string { return m.lastLog }

// Run applies every pass to every function in mod, iterating rounds until
// a round makes no changes or roundCap is hit.
func (m *Manager) Run(mod *mir.Module) {
	m.lastLog = nil
	for round := 0; round < m.roundCap; round++ {
		anyChanged := false
		for _, pass := range m.passes {
			changed := pass.RunOnModule(mod)
			for _, fn := range mod.Functions {
				if fn.IsExtern() {
					continue
				}
				if pass.RunOnFunction(fn) {
					changed = true
				}
			}
			if changed {
				anyChanged = true
				m.lastLog = append(m.lastLog, pass.Name()+": applied optimizations")
			} else {
				m.lastLog = append(m.lastLog, pass.Name()+": no changes needed")
			}
		}
		if !anyChanged {
			return
		}
	}
}
