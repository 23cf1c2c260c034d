// Package critic implements the answer review node. It asks the completion
// backend to rate the draft and decides whether one revision pass is worth
// taking before the request terminates.
package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/llm"
)

const (
	// revisionThreshold is the quality score below which a flagged answer
	// gets sent back to the synthesizer.
	revisionThreshold = 0.6

	// neutralScore is assumed when the reviewer's own output cannot be
	// parsed; a broken reviewer must not block a usable answer.
	neutralScore = 0.7

	reviewMaxTokens   = 200
	reviewTemperature = 0.0
)

type review struct {
	Score         float64 `json:"score"`
	NeedsRevision bool    `json:"needs_revision"`
	Feedback      string  `json:"feedback"`
}

// Critic rates the synthesized answer against the original question.
type Critic struct {
	provider llm.Provider
	logger   logger.ILogger
}

func New(provider llm.Provider, log logger.ILogger) *Critic {
	return &Critic{provider: provider, logger: log}
}

func (c *Critic) Tag() state.NodeTag {
	return state.NodeCritic
}

func (c *Critic) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeCritic

	if strings.TrimSpace(qc.Answer) == "" {
		qc.QualityScore = 0
		qc.CriticFeedback = "No answer was produced."
		qc.NeedsRevision = false
		qc.SetError("Answer synthesis produced no output.")
		qc.NextNode = state.NodeEnd
		return
	}

	rev := c.rate(ctx, qc)
	qc.QualityScore = rev.Score
	qc.CriticFeedback = rev.Feedback
	qc.NeedsRevision = rev.NeedsRevision

	qc.AddTrace("quality_review", fmt.Sprintf("answer scored %.2f", rev.Score), map[string]any{
		"needs_revision": rev.NeedsRevision,
	})

	if rev.NeedsRevision && rev.Score < revisionThreshold && qc.RevisionCount < state.MaxRevisions {
		qc.RevisionCount++
		c.logger.Info("critic", "sending answer back for revision", map[string]interface{}{
			"score":    rev.Score,
			"attempt":  qc.RevisionCount,
			"feedback": rev.Feedback,
		})
		qc.NextNode = state.NodeReasoning
		return
	}

	qc.NextNode = state.NodeEnd
}

func (c *Critic) rate(ctx context.Context, qc *state.QueryContext) review {
	prompt := buildReviewPrompt(qc.Query, qc.Answer)

	result, err := c.provider.Complete(ctx, prompt,
		llm.WithMaxTokens(reviewMaxTokens),
		llm.WithTemperature(reviewTemperature),
	)
	if err != nil || result == nil {
		c.logger.Warn("critic", "review backend failed, assuming neutral score", map[string]interface{}{})
		return review{Score: neutralScore}
	}

	var rev review
	if err := json.Unmarshal([]byte(extractJSON(result.Text)), &rev); err != nil {
		c.logger.Warn("critic", "unparseable review output, assuming neutral score", map[string]interface{}{
			"raw": result.Text,
		})
		return review{Score: neutralScore}
	}

	if rev.Score < 0 {
		rev.Score = 0
	}
	if rev.Score > 1 {
		rev.Score = 1
	}
	return rev
}

func buildReviewPrompt(query, answer string) string {
	var b strings.Builder
	b.WriteString("You are a strict reviewer of question answering quality.\n")
	b.WriteString("Rate how well the answer addresses the question. Respond with JSON only:\n")
	b.WriteString(`{"score": <0.0-1.0>, "needs_revision": <true|false>, "feedback": "<one sentence>"}`)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\nAnswer: ")
	b.WriteString(answer)
	return b.String()
}

// extractJSON pulls the first top-level JSON object out of model output,
// tolerating prose or code fences around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
