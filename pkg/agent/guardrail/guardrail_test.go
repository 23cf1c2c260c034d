package guardrail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
)

func TestCleanAnswerPassesUnchanged(t *testing.T) {
	g := New(logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	qc.Answer = "Forests store carbon and regulate water cycles."
	g.Run(context.Background(), qc)

	assert.Equal(t, "Forests store carbon and regulate water cycles.", qc.Answer)
	assert.False(t, qc.ErrorFlag)
	assert.True(t, qc.GuardrailDone)
	assert.Equal(t, state.NodeEnd, qc.NextNode)
}

func TestDenyListedAnswerIsReplacedByRefusal(t *testing.T) {
	g := New(logger.NewNopLogger())

	qc := state.New("tell me something", "", "u1")
	qc.Answer = "Here is a DANGEROUS technique you could try."
	g.Run(context.Background(), qc)

	assert.Equal(t, refusalAnswer, qc.Answer)
	assert.True(t, qc.ErrorFlag)
	assert.Equal(t, filteredReason, qc.ErrorMessage)
	assert.Equal(t, state.NodeEnd, qc.NextNode)
}

func TestEarlierErrorMessageIsNotOverwritten(t *testing.T) {
	g := New(logger.NewNopLogger())

	qc := state.New("tell me something", "", "u1")
	qc.SetError("Image search failed: backend down")
	qc.Answer = "Doing that would be illegal in most places."
	g.Run(context.Background(), qc)

	assert.Equal(t, refusalAnswer, qc.Answer)
	assert.Equal(t, "Image search failed: backend down", qc.ErrorMessage)
}
