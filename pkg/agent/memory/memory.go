// Package memory implements the memory pass of the orchestration graph.
// It runs exactly once per execution, immediately before synthesis, and
// never fails the request: a broken store degrades to an empty context.
package memory

import (
	"context"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/memstore"
	"sat-sight-be/pkg/store"
)

const (
	contextTurns  = 5
	episodicLimit = 3
	minSearchWord = 3
)

// Node loads conversational context from the three stores and records the
// incoming query before handing over to the synthesizer.
type Node struct {
	shortTerm memstore.ShortTerm
	longTerm  memstore.LongTerm
	episodic  memstore.Episodic
	logger    logger.ILogger
}

func New(shortTerm memstore.ShortTerm, longTerm memstore.LongTerm, episodic memstore.Episodic, log logger.ILogger) *Node {
	return &Node{
		shortTerm: shortTerm,
		longTerm:  longTerm,
		episodic:  episodic,
		logger:    log,
	}
}

func (n *Node) Tag() state.NodeTag {
	return state.NodeMemory
}

func (n *Node) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeMemory

	if n.shortTerm != nil {
		if err := n.shortTerm.AddTurn(ctx, qc.EpisodeID, "user", qc.Query); err != nil {
			n.logger.Warn("memory", "failed to record user turn", map[string]interface{}{"error": err.Error()})
		}

		turns, err := n.shortTerm.GetContext(ctx, qc.EpisodeID, contextTurns)
		if err != nil {
			n.logger.Warn("memory", "failed to load conversation window", map[string]interface{}{"error": err.Error()})
		} else {
			qc.Conversation = turns
		}

		formatted, err := n.shortTerm.FormatForPrompt(ctx, qc.EpisodeID, contextTurns)
		if err == nil {
			qc.MemoryContext = formatted
		}
	}

	if n.longTerm != nil && qc.UserID != "" {
		if _, err := n.longTerm.GetOrCreateUser(ctx, qc.UserID); err != nil {
			n.logger.Warn("memory", "failed to touch user profile", map[string]interface{}{"user_id": qc.UserID, "error": err.Error()})
		}
		if err := n.longTerm.RecordQueryPattern(ctx, qc.UserID, qc.Category, qc.Query); err != nil {
			n.logger.Warn("memory", "failed to record query pattern", map[string]interface{}{"error": err.Error()})
		}
	}

	if n.episodic != nil && qc.UserID != "" {
		if term := searchTerm(qc.Query); term != "" {
			past, err := n.episodic.SearchInteractions(ctx, qc.UserID, term, episodicLimit)
			if err != nil {
				n.logger.Warn("memory", "episodic search failed", map[string]interface{}{"error": err.Error()})
			} else {
				for _, p := range past {
					// The current query is already logged by the time related
					// episodes are searched in a follow-up turn, never now.
					if p.EpisodeID == qc.EpisodeID {
						continue
					}
					qc.EpisodicRecall = append(qc.EpisodicRecall, store.EpisodeExcerpt{Query: p.Query, Response: p.Response})
				}
			}
		}
	}

	qc.MemoryDone = true
	qc.NextNode = state.NodeReasoning
}

// searchTerm picks the first word long enough to be a meaningful episodic
// search key.
func searchTerm(query string) string {
	for _, w := range strings.Fields(query) {
		w = strings.Trim(strings.ToLower(w), "?.,!")
		if len(w) > minSearchWord {
			return w
		}
	}
	return ""
}
