// Package memstore holds the conversational memory collaborators: the
// short-term turn window, the long-term user profile store, and the
// episodic interaction log. Stores are process-wide singletons wired once
// at bootstrap and injected into the engine.
package memstore

import (
	"context"
	"time"

	"sat-sight-be/pkg/store"
)

// UserProfile is the long-term record for one user.
type UserProfile struct {
	UserID      string
	Preferences map[string]string
	CreatedAt   time.Time
	LastActive  time.Time
}

// Interaction is one recorded query/answer episode entry.
type Interaction struct {
	EpisodeID  string
	UserID     string
	Query      string
	Response   string
	NodesUsed  []string
	ImageRef   string
	Confidence float64
	CreatedAt  time.Time
}

// ShortTerm is the per-episode conversation window.
type ShortTerm interface {
	AddTurn(ctx context.Context, episodeID, role, content string) error
	GetContext(ctx context.Context, episodeID string, n int) ([]store.Turn, error)
	FormatForPrompt(ctx context.Context, episodeID string, n int) (string, error)
}

// LongTerm persists user profiles and coarse query patterns across sessions.
type LongTerm interface {
	GetOrCreateUser(ctx context.Context, userID string) (*UserProfile, error)
	RecordQueryPattern(ctx context.Context, userID, category, queryText string) error
	RecordFeedback(ctx context.Context, userID, query, response string, rating int, feedbackText string) error
}

// Episodic records full interactions and supports a coarse term search over
// past queries.
type Episodic interface {
	RecordInteraction(ctx context.Context, interaction Interaction) error
	SearchInteractions(ctx context.Context, userID, term string, limit int) ([]Interaction, error)
}
