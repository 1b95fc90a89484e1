package optimize

import (
	"testing"

	"github.com/blade-lang/bladec/mir"
	"github.com/stretchr/testify/assert"
)

type countingPass struct {
	remaining int
	name      string
}

func (p *countingPass) Name() string        { return p.name }
func (p *countingPass) Description() string { return "test pass" }
func (p *countingPass) RunOnModule(m *mir.Module) bool { return false }
func (p *countingPass) RunOnFunction(fn *mir.Function) bool {
	if p.remaining > 0 {
		p.remaining--
		return true
	}
	return false
}

func TestManagerRunsToFixedPoint(t *testing.T) {
	m := mir.NewModule("main")
	m.DeclareFunction("f")
	pass := &countingPass{remaining: 3, name: "counter"}
	mgr := NewManager([]Pass{pass}, 0)
	mgr.Run(m)
	assert.Equal(t, 0, pass.remaining)
	assert.NotEmpty(t, mgr.Log())
}

func TestManagerRespectsRoundCap(t *testing.T) {
	m := mir.NewModule("main")
	m.DeclareFunction("f")
	pass := &countingPass{remaining: 1000, name: "never-converges"}
	mgr := NewManager([]Pass{pass}, 3)
	mgr.Run(m)
	assert.Equal(t, 997, pass.remaining)
}
