package optimize

import (
	"testing"

	"github.com/blade-lang/bladec/semgraph"
	"github.com/blade-lang/bladec/types"
	"github.com/stretchr/testify/assert"
)

func TestEstimatedSpeedupRejectsBelowThreshold(t *testing.T) {
	assert.Less(t, EstimatedSpeedup(1, 100), 1.5)
	assert.GreaterOrEqual(t, EstimatedSpeedup(4, 100), 1.5)
}

func TestVectorizableKinds(t *testing.T) {
	assert.True(t, VectorizableKinds[types.KindI32])
	assert.True(t, VectorizableKinds[types.KindF64])
	assert.False(t, VectorizableKinds[types.KindString])
}

func TestScreenRejectsWithoutTripCount(t *testing.T) {
	v := NewVectorizer(4, nil, nil, nil, nil, nil)
	loop := &Loop{Header: 1, Latch: 2, Body: map[semgraph.BlockId]bool{1: true, 2: true}, ExitEdges: []ExitEdge{{From: 1, To: 3}}}
	_, ok := v.screen(nil, loop)
	assert.False(t, ok)
}
