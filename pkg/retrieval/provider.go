// Package retrieval defines the contracts the orchestration graph consumes
// for every evidence backend. Implementations live in subpackages; the
// engine only ever sees these interfaces, so tests substitute fakes.
package retrieval

import (
	"context"

	"sat-sight-be/pkg/store"
)

// ImageIndex is the satellite image similarity backend.
type ImageIndex interface {
	// SearchByImage returns the k nearest catalog entries to the image at
	// imageRef.
	SearchByImage(ctx context.Context, imageRef string, k int) ([]store.ImageMatch, error)

	// SearchByText returns the k catalog entries nearest to the query text
	// in the shared embedding space.
	SearchByText(ctx context.Context, query string, k int) ([]store.ImageMatch, error)
}

// DocumentStore is the domain knowledge-base backend.
type DocumentStore interface {
	Search(ctx context.Context, query string, k int) ([]store.TextChunk, error)
}

// Reranker re-scores retrieved candidates against the literal query text.
// It is a best-effort refinement: callers fall back to the original order
// when it fails.
type Reranker interface {
	RerankImages(ctx context.Context, query string, matches []store.ImageMatch, topK int) ([]store.ImageMatch, error)
	RerankChunks(ctx context.Context, query string, chunks []store.TextChunk, topK int) ([]store.TextChunk, error)
}

// WebSearcher is a live web search client.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]store.WebSnippet, error)
}

// WikiFetcher fetches an encyclopedia summary for a search term. An empty
// string with a nil error means "no article found".
type WikiFetcher interface {
	FetchSummary(ctx context.Context, term string) (string, error)
}

// GeoLookup searches the image catalog by named location and optional land
// class.
type GeoLookup interface {
	SearchByLocation(ctx context.Context, locations []string, landClass string) ([]store.GeoImageMatch, error)
}
