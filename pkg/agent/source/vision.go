// Package source holds the retrieval adapters of the orchestration graph.
// Each adapter performs one unit of retrieval, writes its evidence slot,
// tracks completion when it was a required source, and computes the next
// hop. Backend failures never escape an adapter: they degrade to empty
// evidence and the graph continues toward synthesis.
package source

import (
	"context"
	"fmt"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

// webSearchIndicators route single-source vision hits toward web search
// instead of the encyclopedia when the query asks for fresh information.
var webSearchIndicators = []string{"recent", "latest", "news", "report", "current", "today"}

// VisionAdapter searches the satellite image index, by image when one was
// attached and by query text otherwise, then reranks best-effort.
type VisionAdapter struct {
	index      retrieval.ImageIndex
	reranker   retrieval.Reranker
	router     *router.Router
	logger     logger.ILogger
	retrievalK int
	rerankTopK int
}

func NewVisionAdapter(index retrieval.ImageIndex, reranker retrieval.Reranker, r *router.Router, log logger.ILogger, retrievalK, rerankTopK int) *VisionAdapter {
	return &VisionAdapter{
		index:      index,
		reranker:   reranker,
		router:     r,
		logger:     log,
		retrievalK: retrievalK,
		rerankTopK: rerankTopK,
	}
}

func (a *VisionAdapter) Tag() state.NodeTag {
	return state.NodeVision
}

func (a *VisionAdapter) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeVision

	if !qc.HasImage() && qc.Query == "" {
		// The only input this adapter can work from is missing entirely.
		qc.SetError("Input image or search query is missing.")
		qc.NextNode = state.NodeEnd
		return
	}

	matches, err := a.search(ctx, qc)
	if err != nil {
		a.logger.Error("vision", "image index search failed", map[string]interface{}{"error": err.Error()})
		qc.SetError(fmt.Sprintf("Image search failed: %v", err))
		qc.NextNode = a.router.Next(qc)
		return
	}

	a.logger.Info("vision", "retrieved similar images", map[string]interface{}{"count": len(matches)})

	if qc.Query != "" && len(matches) > 0 && a.reranker != nil {
		reranked, err := a.reranker.RerankImages(ctx, qc.Query, matches, min(a.rerankTopK, len(matches)))
		if err != nil {
			a.logger.Warn("vision", "reranking failed, using original order", map[string]interface{}{"error": err.Error()})
		} else {
			matches = reranked
		}
	}

	qc.Evidence.ImageMatches = matches
	qc.MarkCompleted(state.SourceVision)

	if len(qc.RequiredSources) > 0 {
		qc.NextNode = a.router.Next(qc)
		return
	}

	// Single-source shortcut: a recognized class label reads up on itself
	// in the encyclopedia unless the query asks for fresh information.
	q := strings.ToLower(qc.Query)
	class := ""
	if len(matches) > 0 {
		class = matches[0].Class
	}

	wantsFresh := false
	for _, ind := range webSearchIndicators {
		if strings.Contains(q, ind) {
			wantsFresh = true
			break
		}
	}

	switch {
	case class != "" && !wantsFresh:
		qc.NextNode = state.NodeWiki
	case wantsFresh:
		qc.NextNode = state.NodeWeb
	default:
		qc.NextNode = a.router.Next(qc)
	}
}

func (a *VisionAdapter) search(ctx context.Context, qc *state.QueryContext) ([]store.ImageMatch, error) {
	if qc.HasImage() {
		return a.index.SearchByImage(ctx, qc.ImageRef, a.retrievalK)
	}
	a.logger.Info("vision", "performing text-based image search", map[string]interface{}{"query": qc.Query})
	return a.index.SearchByText(ctx, qc.Query, a.retrievalK)
}
