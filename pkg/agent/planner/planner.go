package planner

import (
	"context"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/state"

	"github.com/google/uuid"
)

// Planner classifies the incoming query, computes the required-source set,
// and selects the first node. It is the only place that mints an episode id.
type Planner struct {
	classifier Classifier
	logger     logger.ILogger
}

func New(classifier Classifier, log logger.ILogger) *Planner {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Planner{classifier: classifier, logger: log}
}

func (p *Planner) Tag() state.NodeTag {
	return state.NodePlanner
}

func (p *Planner) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodePlanner

	if qc.Query == "" {
		p.logger.Error("planner", "no query in state", nil)
		qc.SetError("Input query is missing.")
		qc.NextNode = state.NodeEnd
		return
	}

	if qc.EpisodeID == "" {
		qc.EpisodeID = uuid.NewString()
	}

	c := p.classifier.Classify(qc.Query, qc.HasImage())
	qc.Category = c.Category

	firstNode := state.NodeEnd
	var required []state.SourceTag

	switch c.Category {
	case state.CategoryGeneralKnowledge:
		switch {
		case c.NeedsTextKB && c.NeedsWiki:
			firstNode = state.NodeText
			required = []state.SourceTag{state.SourceText, state.SourceWiki}
		case c.NeedsTextKB:
			firstNode = state.NodeText
		case c.NeedsWiki:
			firstNode = state.NodeWiki
		default:
			firstNode = state.NodeReasoning
		}

	case state.CategoryImageSearch:
		firstNode = state.NodeVision

	case state.CategoryImageAnalysis:
		if c.NeedsImage && qc.HasImage() {
			firstNode = state.NodeVision
		} else {
			firstNode = state.NodeText
		}

	case state.CategoryContextualAnalysis:
		if c.NeedsImage && qc.HasImage() {
			firstNode = state.NodeVision
			// Priority order: vision before text before web.
			required = []state.SourceTag{state.SourceVision}
			if c.NeedsTextKB {
				required = append(required, state.SourceText)
			}
			if c.NeedsWeb {
				required = append(required, state.SourceWeb)
			}
		} else {
			firstNode = state.NodeText
		}

	case state.CategoryWebSearch:
		firstNode = state.NodeWeb

	case state.CategoryLocationQuery:
		firstNode = state.NodeGeo

	default:
		if qc.HasImage() {
			firstNode = state.NodeVision
		} else {
			firstNode = state.NodeWiki
		}
	}

	qc.RequiredSources = required
	qc.NextNode = firstNode

	p.logger.Info("planner", "query classified", map[string]interface{}{
		"category":   c.Category,
		"confidence": c.Confidence,
		"first_node": string(firstNode),
		"required":   required,
		"episode_id": qc.EpisodeID,
	})
}
