// Package wiki fetches encyclopedia summaries from the Wikipedia REST API
// with an in-process cache in front of it.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"sat-sight-be/pkg/retrieval"
)

const summaryEndpoint = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Fetcher retrieves page summaries. Summaries are cached for an hour; a
// missing article is cached too so repeat queries skip the round trip.
type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
}

var _ retrieval.WikiFetcher = &Fetcher{}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache.New(time.Hour, 2*time.Hour),
	}
}

type summaryResponse struct {
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

// FetchSummary returns the article extract for term, or an empty string
// when no article exists.
func (f *Fetcher) FetchSummary(ctx context.Context, term string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(term))
	if key == "" {
		return "", nil
	}

	if cached, found := f.cache.Get(key); found {
		return cached.(string), nil
	}

	words := strings.Fields(key)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	endpoint := summaryEndpoint + url.PathEscape(strings.Join(words, "_"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		f.cache.Set(key, "", cache.DefaultExpiration)
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia error: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var sr summaryResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", err
	}

	// Disambiguation pages carry no usable extract.
	if sr.Type == "disambiguation" {
		f.cache.Set(key, "", cache.DefaultExpiration)
		return "", nil
	}

	f.cache.Set(key, sr.Extract, cache.DefaultExpiration)
	return sr.Extract, nil
}
