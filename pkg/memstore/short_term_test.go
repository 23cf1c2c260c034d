package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortTermWindowTrimsOldTurns(t *testing.T) {
	stm := NewInMemoryShortTerm(2)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, stm.AddTurn(ctx, "ep1", "user", fmt.Sprintf("question %d", i)))
	}

	turns, err := stm.GetContext(ctx, "ep1", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 4)
	assert.Equal(t, "question 2", turns[0].Content)
	assert.Equal(t, "question 5", turns[3].Content)
}

func TestShortTermEpisodesAreIsolated(t *testing.T) {
	stm := NewInMemoryShortTerm(10)
	ctx := context.Background()

	require.NoError(t, stm.AddTurn(ctx, "ep1", "user", "about forests"))
	require.NoError(t, stm.AddTurn(ctx, "ep2", "user", "about rivers"))

	turns, err := stm.GetContext(ctx, "ep1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "about forests", turns[0].Content)
}

func TestFormatForPrompt(t *testing.T) {
	stm := NewInMemoryShortTerm(10)
	ctx := context.Background()

	formatted, err := stm.FormatForPrompt(ctx, "empty", 5)
	require.NoError(t, err)
	assert.Equal(t, "No conversation history.", formatted)

	require.NoError(t, stm.AddTurn(ctx, "ep1", "user", "What is deforestation?"))
	require.NoError(t, stm.AddTurn(ctx, "ep1", "assistant", "Deforestation is the clearing of forests."))

	formatted, err = stm.FormatForPrompt(ctx, "ep1", 5)
	require.NoError(t, err)
	assert.Equal(t, "User: What is deforestation?\nAssistant: Deforestation is the clearing of forests.", formatted)
}

func TestFormatForPromptToleratesEmptyRole(t *testing.T) {
	stm := NewInMemoryShortTerm(10)
	ctx := context.Background()

	require.NoError(t, stm.AddTurn(ctx, "ep1", "", "a turn written without a role"))

	formatted, err := stm.FormatForPrompt(ctx, "ep1", 5)
	require.NoError(t, err)
	assert.Equal(t, "Unknown: a turn written without a role", formatted)
}
