// Package reasoning implements the synthesis node: it folds every piece of
// gathered evidence into one prompt and asks the completion backend for the
// final answer.
package reasoning

import (
	"context"
	"fmt"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/llm"
)

const (
	answerMaxTokens   = 500
	answerTemperature = 0.2
)

const apologyAnswer = "I apologize, but I was unable to generate an answer for this request. Please try again."

// Synthesizer turns the evidence bundle into natural language.
type Synthesizer struct {
	provider llm.Provider
	logger   logger.ILogger
}

func New(provider llm.Provider, log logger.ILogger) *Synthesizer {
	return &Synthesizer{provider: provider, logger: log}
}

func (s *Synthesizer) Tag() state.NodeTag {
	return state.NodeReasoning
}

func (s *Synthesizer) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeReasoning

	if strings.TrimSpace(qc.Query) == "" {
		s.logger.Error("reasoning", "no query in state", nil)
		qc.Answer = apologyAnswer
		qc.SetError("Input query is missing.")
		qc.NextNode = state.NodeEnd
		return
	}

	s.traceEvidence(qc)

	prompt := buildPrompt(qc)

	result, err := s.provider.Complete(ctx, prompt,
		llm.WithMaxTokens(answerMaxTokens),
		llm.WithTemperature(answerTemperature),
	)
	if err != nil || result == nil || strings.TrimSpace(result.Text) == "" {
		details := map[string]interface{}{}
		if err != nil {
			details["error"] = err.Error()
		}
		s.logger.Error("reasoning", "completion backend failed", details)
		qc.Answer = apologyAnswer
		qc.SetError("Answer synthesis failed.")
		qc.AddTrace("response_generation", "completion backend failed, returning apology", nil)
		qc.NextNode = state.NodeEnd
		return
	}

	qc.Answer = strings.TrimSpace(result.Text)
	qc.AddTurn("assistant", qc.Answer)
	qc.AddTrace("response_generation", fmt.Sprintf("generated answer via %s", result.Source), map[string]any{
		"chars":    len(qc.Answer),
		"revision": qc.RevisionCount,
	})
	s.logger.Info("reasoning", "answer generated", map[string]interface{}{
		"source": result.Source,
		"chars":  len(qc.Answer),
	})

	qc.NextNode = state.NodeCritic
}

// traceEvidence writes one thinking-trace entry per modality actually
// present, so the caller can see what the answer stands on.
func (s *Synthesizer) traceEvidence(qc *state.QueryContext) {
	if qc.RevisionCount > 0 {
		qc.AddTrace("revision", "revising previous draft per reviewer feedback", map[string]any{"attempt": qc.RevisionCount})
		return
	}
	if n := len(qc.Evidence.ImageMatches); n > 0 {
		items := make([]map[string]any, 0, maxEvidenceItems)
		for _, m := range qc.Evidence.ImageMatches[:min(n, maxEvidenceItems)] {
			items = append(items, map[string]any{
				"class":       m.Class,
				"confidence":  fmt.Sprintf("%.1f%%", m.Similarity()),
				"location":    m.Region,
				"description": truncate(m.Description, 100),
			})
		}
		qc.AddTrace("image_evidence", fmt.Sprintf("considering %d similar satellite images", n), map[string]any{"matches": items})
	}
	if n := len(qc.Evidence.TextChunks); n > 0 {
		items := make([]map[string]any, 0, maxEvidenceItems)
		for _, c := range qc.Evidence.TextChunks[:min(n, maxEvidenceItems)] {
			items = append(items, map[string]any{
				"source":  c.Source,
				"preview": truncate(c.Content, 150),
			})
		}
		qc.AddTrace("text_evidence", fmt.Sprintf("considering %d knowledge base passages", n), map[string]any{"passages": items})
	}
	if n := len(qc.Evidence.WebSnippets); n > 0 {
		items := make([]map[string]any, 0, maxEvidenceItems)
		for _, w := range qc.Evidence.WebSnippets[:min(n, maxEvidenceItems)] {
			items = append(items, map[string]any{
				"title": w.Title,
				"url":   w.URL,
			})
		}
		qc.AddTrace("web_evidence", fmt.Sprintf("considering %d web results", n), map[string]any{"results": items})
	}
	if qc.Evidence.Wiki != nil && qc.Evidence.Wiki.Content != "" {
		qc.AddTrace("background", "considering encyclopedia background ("+qc.Evidence.Wiki.Source+")", nil)
	}
	if qc.Evidence.Geo != nil {
		qc.AddTrace("geo_context", "considering geographic context", nil)
	}
	if len(qc.EpisodicRecall) > 0 {
		qc.AddTrace("episodic_recall", fmt.Sprintf("recalling %d related past interactions", len(qc.EpisodicRecall)), nil)
	}
}
