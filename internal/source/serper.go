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

// serperAPIBase is the Serper news search endpoint. Declared as a var so
// tests can substitute an httptest server.
var serperAPIBase = "https://google.serper.dev/news"

// SerperProvider queries the Serper (Google) search API.
type SerperProvider struct {
	Client *http.Client
	APIKey string
}

// Name returns the provider identifier.
func (p *SerperProvider) Name() string { return "serper" }

// Search issues one Serper news query and returns quality-filtered
// results.
func (p *SerperProvider) Search(ctx context.Context, query string, maxResults int, cfg types.WebSearchConfig) ([]types.WebResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Serper query")
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: maxResults})
	if err != nil {
		return nil, fmt.Errorf("encoding Serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.APIKey)
	req.Header.Set("User-Agent", userAgent(cfg))

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Serper API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Serper API returned HTTP %d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Serper response: %w", err)
	}

	var results []types.WebResult
	for _, item := range sr.News {
		if !AcceptResult(item.Title, item.Snippet, item.Link) {
			continue
		}
		results = append(results, types.WebResult{
			Title:       item.Title,
			Snippet:     item.Snippet,
			URL:         item.Link,
			SourceName:  SourceName(item.Link),
			PublishedAt: parseDate(item.Date),
			Trusted:     IsTrustedDomain(item.Link),
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

// Serper API JSON structures.
type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	News []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
		Source  string `json:"source"`
	} `json:"news"`
}
