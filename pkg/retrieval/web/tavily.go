// Package web provides the live web search clients. Tavily is preferred
// when an API key is configured; DuckDuckGo's instant answer API is the
// keyless fallback.
package web

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

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyClient implements web search against the Tavily API.
type TavilyClient struct {
	apiKey string
	client *http.Client
}

var _ retrieval.WebSearcher = &TavilyClient{}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]store.WebSnippet, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      c.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error: %s", string(raw))
	}

	var tr tavilyResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, err
	}

	snippets := make([]store.WebSnippet, 0, len(tr.Results))
	for _, r := range tr.Results {
		snippets = append(snippets, store.WebSnippet{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return snippets, nil
}
