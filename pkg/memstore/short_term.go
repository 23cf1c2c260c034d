package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sat-sight-be/pkg/store"
)

// InMemoryShortTerm keeps conversation windows per episode in process
// memory. Writes are append-only and keyed by episode id, so concurrent
// requests for different episodes never interfere.
type InMemoryShortTerm struct {
	mu       sync.RWMutex
	maxTurns int
	turns    map[string][]store.Turn
}

var _ ShortTerm = &InMemoryShortTerm{}

func NewInMemoryShortTerm(maxTurns int) *InMemoryShortTerm {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &InMemoryShortTerm{
		maxTurns: maxTurns,
		turns:    make(map[string][]store.Turn),
	}
}

func (s *InMemoryShortTerm) AddTurn(_ context.Context, episodeID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.turns[episodeID], store.Turn{Role: role, Content: content})

	// A turn pair per exchange, so the window holds maxTurns*2 entries.
	if limit := s.maxTurns * 2; len(history) > limit {
		history = history[len(history)-limit:]
	}
	s.turns[episodeID] = history
	return nil
}

func (s *InMemoryShortTerm) GetContext(_ context.Context, episodeID string, n int) ([]store.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.turns[episodeID]
	if n <= 0 || n >= len(history) {
		out := make([]store.Turn, len(history))
		copy(out, history)
		return out, nil
	}
	out := make([]store.Turn, n)
	copy(out, history[len(history)-n:])
	return out, nil
}

func (s *InMemoryShortTerm) FormatForPrompt(ctx context.Context, episodeID string, n int) (string, error) {
	turns, err := s.GetContext(ctx, episodeID, n)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "No conversation history.", nil
	}

	var b strings.Builder
	for i, turn := range turns {
		content := turn.Content
		if len(content) > 200 {
			content = content[:200]
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", titleRole(turn.Role), content)
	}
	return b.String(), nil
}

// titleRole capitalizes a turn role for display. Empty roles can reach us
// through externally writable stores.
func titleRole(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
