package source

import (
	"context"
	"fmt"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/retrieval"
)

// WebAdapter fetches live snippets from whichever search client the
// container wired (tavily when a key is configured, duckduckgo otherwise).
type WebAdapter struct {
	searcher   retrieval.WebSearcher
	router     *router.Router
	logger     logger.ILogger
	maxResults int
}

func NewWebAdapter(searcher retrieval.WebSearcher, r *router.Router, log logger.ILogger, maxResults int) *WebAdapter {
	return &WebAdapter{
		searcher:   searcher,
		router:     r,
		logger:     log,
		maxResults: maxResults,
	}
}

func (a *WebAdapter) Tag() state.NodeTag {
	return state.NodeWeb
}

func (a *WebAdapter) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeWeb

	if qc.Query == "" {
		qc.SetError("Input query is missing.")
		qc.NextNode = state.NodeEnd
		return
	}

	if a.searcher == nil {
		a.logger.Error("web_search", "no web search client configured", nil)
		qc.SetError("Web search client is not configured.")
		qc.NextNode = a.router.Next(qc)
		return
	}

	snippets, err := a.searcher.Search(ctx, qc.Query, a.maxResults)
	if err != nil {
		a.logger.Error("web_search", "web search failed", map[string]interface{}{"error": err.Error()})
		qc.SetError(fmt.Sprintf("Web search failed: %v", err))
		qc.NextNode = a.router.Next(qc)
		return
	}

	a.logger.Info("web_search", "retrieved web snippets", map[string]interface{}{"count": len(snippets)})

	qc.Evidence.WebSnippets = snippets
	qc.MarkCompleted(state.SourceWeb)
	qc.NextNode = a.router.Next(qc)
}
