// Package rerank calls an external cross-encoder service to re-score
// retrieved candidates against the literal query text.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

// Client talks to a cross-encoder scoring endpoint. The endpoint accepts a
// query plus a list of candidate texts and returns one relevance score per
// candidate.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ retrieval.Reranker = &Client{}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type scoreRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

func (c *Client) RerankImages(ctx context.Context, query string, matches []store.ImageMatch, topK int) ([]store.ImageMatch, error) {
	if len(matches) == 0 {
		return matches, nil
	}

	candidates := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = fmt.Sprintf("%s %s %s", m.Class, m.Region, m.Description)
	}

	order, err := c.score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	reranked := make([]store.ImageMatch, 0, topK)
	for _, i := range order {
		if len(reranked) == topK {
			break
		}
		reranked = append(reranked, matches[i])
	}
	return reranked, nil
}

func (c *Client) RerankChunks(ctx context.Context, query string, chunks []store.TextChunk, topK int) ([]store.TextChunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	candidates := make([]string, len(chunks))
	for i, ch := range chunks {
		candidates[i] = ch.Content
	}

	order, err := c.score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	reranked := make([]store.TextChunk, 0, topK)
	for _, i := range order {
		if len(reranked) == topK {
			break
		}
		reranked = append(reranked, chunks[i])
	}
	return reranked, nil
}

// score returns candidate indexes ordered by descending relevance.
func (c *Client) score(ctx context.Context, query string, candidates []string) ([]int, error) {
	body, err := json.Marshal(scoreRequest{Query: query, Candidates: candidates})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reranker request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker error: %s", string(raw))
	}

	var sr scoreResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, err
	}
	if len(sr.Scores) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(sr.Scores), len(candidates))
	}

	return rankIndexes(sr.Scores), nil
}

func rankIndexes(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// Insertion sort keeps ties in the original retrieval order.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && scores[order[j]] > scores[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}
