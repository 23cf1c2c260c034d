package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/memstore"
	"sat-sight-be/pkg/store"
)

type fakeShortTerm struct {
	turns  []store.Turn
	added  []store.Turn
	err    error
	prompt string
}

func (f *fakeShortTerm) AddTurn(ctx context.Context, episodeID, role, content string) error {
	f.added = append(f.added, store.Turn{Role: role, Content: content})
	return f.err
}

func (f *fakeShortTerm) GetContext(ctx context.Context, episodeID string, n int) ([]store.Turn, error) {
	return f.turns, f.err
}

func (f *fakeShortTerm) FormatForPrompt(ctx context.Context, episodeID string, n int) (string, error) {
	return f.prompt, f.err
}

type fakeLongTerm struct {
	patterns []string
	err      error
}

func (f *fakeLongTerm) GetOrCreateUser(ctx context.Context, userID string) (*memstore.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &memstore.UserProfile{UserID: userID}, nil
}

func (f *fakeLongTerm) RecordQueryPattern(ctx context.Context, userID, category, queryText string) error {
	f.patterns = append(f.patterns, category)
	return f.err
}

func (f *fakeLongTerm) RecordFeedback(ctx context.Context, userID, query, response string, rating int, feedbackText string) error {
	return f.err
}

type fakeEpisodic struct {
	past     []memstore.Interaction
	lastTerm string
	err      error
}

func (f *fakeEpisodic) RecordInteraction(ctx context.Context, interaction memstore.Interaction) error {
	return f.err
}

func (f *fakeEpisodic) SearchInteractions(ctx context.Context, userID, term string, limit int) ([]memstore.Interaction, error) {
	f.lastTerm = term
	return f.past, f.err
}

func TestMemoryLoadsContextAndRoutesToReasoning(t *testing.T) {
	st := &fakeShortTerm{
		turns:  []store.Turn{{Role: "user", Content: "earlier question"}},
		prompt: "user: earlier question",
	}
	lt := &fakeLongTerm{}
	ep := &fakeEpisodic{past: []memstore.Interaction{{EpisodeID: "old", Query: "deforestation rates", Response: "They rose."}}}
	n := New(st, lt, ep, logger.NewNopLogger())

	qc := state.New("deforestation in brazil", "", "u1")
	qc.EpisodeID = "ep-1"
	qc.Category = state.CategoryGeneralKnowledge
	n.Run(context.Background(), qc)

	assert.True(t, qc.MemoryDone)
	assert.Equal(t, state.NodeReasoning, qc.NextNode)
	require.Len(t, st.added, 1)
	assert.Equal(t, "user", st.added[0].Role)
	assert.Equal(t, "user: earlier question", qc.MemoryContext)
	assert.Equal(t, []string{state.CategoryGeneralKnowledge}, lt.patterns)
	assert.Equal(t, "deforestation", ep.lastTerm)
	require.Len(t, qc.EpisodicRecall, 1)
	assert.Equal(t, "deforestation rates", qc.EpisodicRecall[0].Query)
}

func TestMemorySkipsCurrentEpisodeInRecall(t *testing.T) {
	ep := &fakeEpisodic{past: []memstore.Interaction{{EpisodeID: "ep-1", Query: "same episode"}}}
	n := New(&fakeShortTerm{}, &fakeLongTerm{}, ep, logger.NewNopLogger())

	qc := state.New("forests of borneo", "", "u1")
	qc.EpisodeID = "ep-1"
	n.Run(context.Background(), qc)

	assert.Empty(t, qc.EpisodicRecall)
}

func TestMemoryNeverSetsErrorFlag(t *testing.T) {
	boom := errors.New("store down")
	n := New(&fakeShortTerm{err: boom}, &fakeLongTerm{err: boom}, &fakeEpisodic{err: boom}, logger.NewNopLogger())

	qc := state.New("forest cover change", "", "u1")
	qc.EpisodeID = "ep-1"
	n.Run(context.Background(), qc)

	assert.False(t, qc.ErrorFlag)
	assert.True(t, qc.MemoryDone)
	assert.Equal(t, state.NodeReasoning, qc.NextNode)
}

func TestSearchTermSkipsShortWords(t *testing.T) {
	assert.Equal(t, "deforestation", searchTerm("is deforestation bad?"))
	assert.Equal(t, "", searchTerm("is it ok"))
}
