// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/geointel-engine/internal/httputil"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily search API.
type TavilyProvider struct {
	Client *http.Client
	APIKey string
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

// Search issues one Tavily query and returns quality-filtered results.
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int, cfg types.WebSearchConfig) ([]types.WebResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Tavily query")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      p.APIKey,
		Query:       query,
		Topic:       "news",
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent(cfg))

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API returned HTTP %d", resp.StatusCode)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	var results []types.WebResult
	for _, item := range tr.Results {
		if !AcceptResult(item.Title, item.Content, item.URL) {
			continue
		}
		results = append(results, types.WebResult{
			Title:       item.Title,
			Snippet:     item.Content,
			URL:         item.URL,
			SourceName:  SourceName(item.URL),
			PublishedAt: parseDate(item.PublishedDate),
			Trusted:     IsTrustedDomain(item.URL),
		})
	}
	return results, nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	Topic       string `json:"topic"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}
