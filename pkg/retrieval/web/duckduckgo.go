package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

const duckDuckGoEndpoint = "https://api.duckduckgo.com/"

// DuckDuckGoClient implements keyless web search over the instant answer
// API. Coverage is thinner than Tavily's but needs no credentials.
type DuckDuckGoClient struct {
	client *http.Client
}

var _ retrieval.WebSearcher = &DuckDuckGoClient{}

func NewDuckDuckGoClient() *DuckDuckGoClient {
	return &DuckDuckGoClient{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Heading       string     `json:"Heading"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]store.WebSnippet, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1", duckDuckGoEndpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo error: status %d", resp.StatusCode)
	}

	var dr ddgResponse
	if err := json.Unmarshal(raw, &dr); err != nil {
		return nil, err
	}

	var snippets []store.WebSnippet
	if dr.AbstractText != "" {
		snippets = append(snippets, store.WebSnippet{
			Title:   dr.Heading,
			URL:     dr.AbstractURL,
			Content: dr.AbstractText,
		})
	}
	for _, topic := range dr.RelatedTopics {
		if len(snippets) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		snippets = append(snippets, store.WebSnippet{
			Title:   topic.Text,
			URL:     topic.FirstURL,
			Content: topic.Text,
		})
	}
	return snippets, nil
}
