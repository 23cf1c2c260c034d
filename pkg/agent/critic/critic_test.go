package critic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/llm"
)

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{Text: f.text, Source: "ollama/test"}, nil
}

func TestLowScoreTriggersOneRevision(t *testing.T) {
	p := &fakeProvider{text: `{"score": 0.3, "needs_revision": true, "feedback": "Too vague."}`}
	c := New(p, logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	qc.Answer = "They just do."
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeReasoning, qc.NextNode)
	assert.Equal(t, 1, qc.RevisionCount)
	assert.Equal(t, "Too vague.", qc.CriticFeedback)

	// A second low score after the revision must terminate, not loop.
	qc.Answer = "They still just do."
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.Equal(t, 1, qc.RevisionCount)
}

func TestAcceptableScoreTerminates(t *testing.T) {
	p := &fakeProvider{text: `{"score": 0.9, "needs_revision": false, "feedback": "Good."}`}
	c := New(p, logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	qc.Answer = "Forests store carbon and regulate water cycles."
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.InDelta(t, 0.9, qc.QualityScore, 1e-9)
	assert.Zero(t, qc.RevisionCount)
}

func TestUnparseableReviewAssumesNeutralScore(t *testing.T) {
	p := &fakeProvider{text: "I think the answer is fine overall."}
	c := New(p, logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	qc.Answer = "Forests store carbon."
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.InDelta(t, 0.7, qc.QualityScore, 1e-9)
	assert.False(t, qc.NeedsRevision)
}

func TestReviewBackendFailureAssumesNeutralScore(t *testing.T) {
	p := &fakeProvider{err: errors.New("model offline")}
	c := New(p, logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	qc.Answer = "Forests store carbon."
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.InDelta(t, 0.7, qc.QualityScore, 1e-9)
	assert.False(t, qc.ErrorFlag)
}

func TestEmptyAnswerIsZeroScoreFailure(t *testing.T) {
	c := New(&fakeProvider{}, logger.NewNopLogger())

	qc := state.New("why do forests matter", "", "u1")
	c.Run(context.Background(), qc)

	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.Zero(t, qc.QualityScore)
	assert.True(t, qc.ErrorFlag)
}

func TestExtractJSONToleratesProseAndFences(t *testing.T) {
	raw := "Sure, here is the review:\n```json\n{\"score\": 0.8, \"needs_revision\": false, \"feedback\": \"ok\"}\n```"
	assert.Equal(t, `{"score": 0.8, "needs_revision": false, "feedback": "ok"}`, extractJSON(raw))
}
