// Package guardrail implements the safety gate that filters every answer
// exactly once on the way out of the graph.
package guardrail

import (
	"context"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"
)

const (
	refusalAnswer  = "I cannot provide information that may be harmful or inappropriate."
	filteredReason = "Content filtered by safety guardrails"
)

var denyTerms = []string{"harmful", "dangerous", "illegal", "violent", "explicit"}

// Gate replaces answers that trip the deny list with a fixed refusal.
type Gate struct {
	logger logger.ILogger
}

func New(log logger.ILogger) *Gate {
	return &Gate{logger: log}
}

func (g *Gate) Tag() state.NodeTag {
	return state.NodeGuardrail
}

func (g *Gate) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeGuardrail

	lower := strings.ToLower(qc.Answer)
	for _, term := range denyTerms {
		if strings.Contains(lower, term) {
			g.logger.Warn("guardrail", "answer blocked by deny list", map[string]interface{}{"term": term})
			qc.Answer = refusalAnswer
			qc.SetError(filteredReason)
			qc.AddTrace("safety", "answer replaced by safety refusal", map[string]any{"term": term})
			break
		}
	}

	qc.GuardrailDone = true
	qc.NextNode = state.NodeEnd
}
