package source

import (
	"context"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

var wikiStopWords = map[string]bool{
	"what": true, "is": true, "are": true, "the": true, "a": true, "an": true,
	"how": true, "why": true, "when": true, "where": true, "about": true,
	"this": true, "that": true, "these": true, "those": true, "can": true,
	"could": true, "would": true, "should": true, "do": true, "does": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "from": true, "by": true, "and": true, "or": true, "but": true,
}

// wikiPriorityKeywords are domain terms preferred as lookup subjects when
// they appear anywhere in the query.
var wikiPriorityKeywords = []string{
	"deforestation", "climate", "agriculture", "forest", "land", "crop",
	"environmental", "conservation", "biodiversity", "erosion",
}

// WikiAdapter fetches an encyclopedia summary for the best available
// search term: the top image match's class label when vision ran earlier,
// otherwise significant words extracted from the query.
type WikiAdapter struct {
	fetcher retrieval.WikiFetcher
	router  *router.Router
	logger  logger.ILogger
}

func NewWikiAdapter(fetcher retrieval.WikiFetcher, r *router.Router, log logger.ILogger) *WikiAdapter {
	return &WikiAdapter{fetcher: fetcher, router: r, logger: log}
}

func (a *WikiAdapter) Tag() state.NodeTag {
	return state.NodeWiki
}

// ExtractSearchTerm picks the lookup subject from a query: priority domain
// keywords first, then the first two significant words.
func ExtractSearchTerm(query string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, "?.,!")
		if !wikiStopWords[w] && len(w) > 3 {
			words = append(words, w)
		}
	}

	var priority []string
	for _, w := range words {
		for _, kw := range wikiPriorityKeywords {
			if w == kw {
				priority = append(priority, w)
				break
			}
		}
	}

	if len(priority) > 0 {
		if len(priority) > 2 {
			priority = priority[:2]
		}
		return strings.Join(priority, " ")
	}
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

func (a *WikiAdapter) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeWiki

	term := ""
	if len(qc.Evidence.ImageMatches) > 0 {
		term = qc.Evidence.ImageMatches[0].Class
	}
	if term == "" && qc.Query != "" {
		term = ExtractSearchTerm(qc.Query)
	}

	if term == "" {
		a.logger.Warn("wikipedia", "no search term available, skipping fetch", nil)
		qc.MarkCompleted(state.SourceWiki)
		qc.NextNode = a.router.Next(qc)
		return
	}

	summary, err := a.fetcher.FetchSummary(ctx, term)
	if err != nil {
		// Treated as backend unavailability: continue without the summary.
		a.logger.Error("wikipedia", "summary fetch failed", map[string]interface{}{"term": term, "error": err.Error()})
		qc.SetError("Encyclopedia lookup failed: " + err.Error())
		qc.NextNode = a.router.Next(qc)
		return
	}

	if summary != "" {
		qc.Evidence.Wiki = &store.WikiSummary{
			Content: summary,
			Source:  "Wikipedia: " + term,
		}
		a.logger.Info("wikipedia", "retrieved summary", map[string]interface{}{"term": term, "chars": len(summary)})
	} else {
		a.logger.Info("wikipedia", "no article found", map[string]interface{}{"term": term})
	}

	qc.MarkCompleted(state.SourceWiki)
	qc.NextNode = a.router.Next(qc)
}
