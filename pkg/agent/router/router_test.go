package router

import (
	"testing"

	"sat-sight-be/pkg/agent/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFollowsRequiredPriorityOrder(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	qc := state.New("is this residential area at risk?", "img.png", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceVision, state.SourceText}

	assert.Equal(t, state.NodeVision, r.Next(qc))

	qc.MarkCompleted(state.SourceVision)
	assert.Equal(t, state.NodeText, r.Next(qc))

	qc.MarkCompleted(state.SourceText)
	assert.Equal(t, state.NodeMemory, r.Next(qc))

	qc.MemoryDone = true
	assert.Equal(t, state.NodeReasoning, r.Next(qc))
}

func TestNextHopCountMatchesRequiredSize(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	for _, required := range [][]state.SourceTag{
		{},
		{state.SourceText},
		{state.SourceVision, state.SourceText},
		{state.SourceVision, state.SourceText, state.SourceWeb, state.SourceWiki},
	} {
		qc := state.New("q", "", "u1")
		qc.RequiredSources = required

		hops := 0
		for {
			next := r.Next(qc)
			if next == state.NodeMemory {
				qc.MemoryDone = true
				continue
			}
			if next == state.NodeReasoning {
				break
			}
			// Simulate the adapter completing its source.
			for tag, node := range sourceNodes {
				if node == next {
					qc.MarkCompleted(tag)
				}
			}
			hops++
		}

		assert.Equal(t, len(required), hops, "required=%v", required)
	}
}

func TestNextSkipsRetrievalOnStickyError(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	qc := state.New("q", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceVision, state.SourceText}
	qc.SetError("vision backend unavailable")

	assert.Equal(t, state.NodeMemory, r.Next(qc))
	qc.MemoryDone = true
	assert.Equal(t, state.NodeReasoning, r.Next(qc))
}

func TestAllowedEdges(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	assert.True(t, r.Allowed(state.NodePlanner, state.NodeVision))
	assert.True(t, r.Allowed(state.NodeCritic, state.NodeReasoning))
	assert.True(t, r.Allowed(state.NodeGeo, state.NodeEnd))
	assert.False(t, r.Allowed(state.NodeMemory, state.NodeVision))
	assert.False(t, r.Allowed(state.NodeGuardrail, state.NodeReasoning))
}
