package planner

import (
	"strings"

	"sat-sight-be/pkg/agent/state"
)

// Classification is the planner's routing decision for one query.
type Classification struct {
	Category    string
	NeedsImage  bool
	NeedsTextKB bool
	NeedsWeb    bool
	NeedsWiki   bool
	Confidence  float64
}

// Classifier decides the query category. The keyword implementation below
// is the default; a model-backed classifier can be swapped in without
// touching the router.
type Classifier interface {
	Classify(query string, hasImage bool) Classification
}

var (
	imageRequestKeywords = []string{"show me", "display", "view", "find images", "show images", "find pictures", "examples of"}
	imageRefKeywords     = []string{"image", "picture", "photo", "this", "shown", "see", "visible", "satellite", "aerial"}
	webKeywords          = []string{"latest", "recent", "news", "current", "today", "update", "new", "2024", "2025"}
	locationKeywords     = []string{"coordinates", "latitude", "longitude", " gps ", " degree", " near ", " in ", " around ", " within ", " km from", " distance from", "paris", "poland", "switzerland", "germany", "france", "stuttgart", "czech", "brazil", "amazon", "california"}
	riskKeywords         = []string{"risk", "threat", "danger", "vulnerable", "impact", "effect", "consequence"}
)

// KeywordClassifier implements Classifier as a deterministic, ordered rule
// cascade over lower-cased substring membership. No model call.
type KeywordClassifier struct{}

var _ Classifier = KeywordClassifier{}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Classify is a pure function: identical inputs always yield the identical
// classification. The cascade order is significant: an explicit image
// request wins over recency phrasing, which wins over location phrasing.
func (KeywordClassifier) Classify(query string, hasImage bool) Classification {
	q := strings.ToLower(query)

	category := state.CategoryGeneralKnowledge
	confidence := 0.8

	switch {
	case containsAny(q, imageRequestKeywords):
		category = state.CategoryImageSearch
		confidence = 0.95
	case containsAny(q, webKeywords):
		category = state.CategoryWebSearch
		confidence = 0.95
	case containsAny(q, locationKeywords):
		category = state.CategoryLocationQuery
		confidence = 0.95
	case hasImage:
		hasImageRef := containsAny(q, imageRefKeywords)
		hasRiskRef := containsAny(q, riskKeywords)
		switch {
		case hasImageRef && !hasRiskRef:
			category = state.CategoryImageAnalysis
			confidence = 0.9
		case hasImageRef || hasRiskRef:
			category = state.CategoryContextualAnalysis
			confidence = 0.85
		default:
			category = state.CategoryImageAnalysis
			confidence = 0.7
		}
	}

	analysis := category == state.CategoryImageAnalysis || category == state.CategoryContextualAnalysis

	return Classification{
		Category:    category,
		NeedsImage:  hasImage && analysis,
		NeedsTextKB: category == state.CategoryContextualAnalysis || category == state.CategoryGeneralKnowledge,
		NeedsWeb:    category == state.CategoryWebSearch,
		NeedsWiki:   category == state.CategoryGeneralKnowledge && !hasImage,
		Confidence:  confidence,
	}
}
