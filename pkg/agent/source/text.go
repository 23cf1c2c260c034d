package source

import (
	"context"
	"fmt"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/retrieval"
)

// TextAdapter retrieves passages from the document knowledge base and
// reranks them best-effort against the query.
type TextAdapter struct {
	docs       retrieval.DocumentStore
	reranker   retrieval.Reranker
	router     *router.Router
	logger     logger.ILogger
	retrievalK int
	rerankTopK int
}

func NewTextAdapter(docs retrieval.DocumentStore, reranker retrieval.Reranker, r *router.Router, log logger.ILogger, retrievalK, rerankTopK int) *TextAdapter {
	return &TextAdapter{
		docs:       docs,
		reranker:   reranker,
		router:     r,
		logger:     log,
		retrievalK: retrievalK,
		rerankTopK: rerankTopK,
	}
}

func (a *TextAdapter) Tag() state.NodeTag {
	return state.NodeText
}

func (a *TextAdapter) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeText

	if qc.Query == "" {
		qc.SetError("Input query is missing.")
		qc.NextNode = state.NodeEnd
		return
	}

	chunks, err := a.docs.Search(ctx, qc.Query, a.retrievalK)
	if err != nil {
		a.logger.Error("text_retrieval", "knowledge base search failed", map[string]interface{}{"error": err.Error()})
		qc.SetError(fmt.Sprintf("Knowledge base search failed: %v", err))
		qc.NextNode = a.router.Next(qc)
		return
	}

	a.logger.Info("text_retrieval", "retrieved text chunks", map[string]interface{}{"count": len(chunks)})

	if len(chunks) > 0 && a.reranker != nil {
		reranked, err := a.reranker.RerankChunks(ctx, qc.Query, chunks, min(a.rerankTopK, len(chunks)))
		if err != nil {
			a.logger.Warn("text_retrieval", "reranking failed, using original order", map[string]interface{}{"error": err.Error()})
		} else {
			chunks = reranked
		}
	}

	qc.Evidence.TextChunks = chunks
	qc.MarkCompleted(state.SourceText)
	qc.NextNode = a.router.Next(qc)
}
