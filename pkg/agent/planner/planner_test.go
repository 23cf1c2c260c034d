package planner

import (
	"context"
	"testing"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIsDeterministic(t *testing.T) {
	c := KeywordClassifier{}
	first := c.Classify("What causes deforestation?", false)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify("What causes deforestation?", false))
	}
}

func TestClassifyCascade(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		hasImage     bool
		wantCategory string
	}{
		{
			name:         "explicit image request",
			query:        "Show me forests",
			wantCategory: state.CategoryImageSearch,
		},
		{
			name:         "recency keyword wins over topic keywords",
			query:        "What is the latest news on deforestation in the Amazon?",
			wantCategory: state.CategoryWebSearch,
		},
		{
			name:         "location phrasing",
			query:        "Which satellite tiles cover Stuttgart?",
			wantCategory: state.CategoryLocationQuery,
		},
		{
			name:         "risk language plus image reference",
			query:        "Is this residential area at risk?",
			hasImage:     true,
			wantCategory: state.CategoryContextualAnalysis,
		},
		{
			name:         "image reference without risk language",
			query:        "What does this satellite image show?",
			hasImage:     true,
			wantCategory: state.CategoryImageAnalysis,
		},
		{
			name:         "plain question defaults to general knowledge",
			query:        "What causes soil erosion?",
			wantCategory: state.CategoryGeneralKnowledge,
		},
	}

	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.query, tt.hasImage)
			assert.Equal(t, tt.wantCategory, got.Category)
		})
	}
}

func TestPlannerScenarioA(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("Show me forests", "", "u1")

	p.Run(context.Background(), qc)

	assert.Equal(t, state.CategoryImageSearch, qc.Category)
	assert.Empty(t, qc.RequiredSources)
	assert.Equal(t, state.NodeVision, qc.NextNode)
}

func TestPlannerScenarioB(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("What is the latest news on deforestation in the Amazon?", "", "u1")

	p.Run(context.Background(), qc)

	assert.Equal(t, state.CategoryWebSearch, qc.Category)
	assert.Equal(t, state.NodeWeb, qc.NextNode)
}

func TestPlannerScenarioC(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("Is this residential area at risk?", "data/images/area.png", "u1")

	p.Run(context.Background(), qc)

	assert.Equal(t, state.CategoryContextualAnalysis, qc.Category)
	assert.Equal(t, []state.SourceTag{state.SourceVision, state.SourceText}, qc.RequiredSources)
	assert.Equal(t, state.NodeVision, qc.NextNode)
}

func TestPlannerGeneralKnowledgeRequiresTextAndWiki(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("What causes soil erosion?", "", "u1")

	p.Run(context.Background(), qc)

	assert.Equal(t, []state.SourceTag{state.SourceText, state.SourceWiki}, qc.RequiredSources)
	assert.Equal(t, state.NodeText, qc.NextNode)
}

func TestPlannerEmptyQueryIsTerminal(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("", "", "u1")

	p.Run(context.Background(), qc)

	assert.True(t, qc.ErrorFlag)
	assert.Equal(t, state.NodeEnd, qc.NextNode)
}

func TestPlannerMintsEpisodeIDOnce(t *testing.T) {
	p := New(nil, logger.NewNopLogger())
	qc := state.New("Show me forests", "", "u1")

	p.Run(context.Background(), qc)
	minted := qc.EpisodeID
	assert.NotEmpty(t, minted)

	p.Run(context.Background(), qc)
	assert.Equal(t, minted, qc.EpisodeID)
}
