// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source adapts the query-driven web-search providers into the
// engine's candidate shape. One query is issued per theme; a provider
// failure for one theme degrades that theme's contribution to empty
// without failing the others.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// Provider searches a single web-search API. Each provider (Tavily,
// Serper) implements this interface per the Strategy pattern.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int, cfg types.WebSearchConfig) ([]types.WebResult, error)
}

// defaultUserAgent identifies the engine to providers when no User-Agent
// is configured.
const defaultUserAgent = "geointel-engine/0.1"

func userAgent(cfg types.WebSearchConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return defaultUserAgent
}

// ThemeSearch is the outcome of one per-theme query: its results, or the
// error that emptied it.
type ThemeSearch struct {
	Theme   types.ThemeRelevance
	Query   string
	Results []types.WebResult
	Err     error
}

// RateLimited wraps a provider with a shared token-bucket limiter so theme
// fan-out respects the provider's rate limits.
type RateLimited struct {
	Provider Provider
	Limiter  *rate.Limiter
}

// Name returns the wrapped provider's identifier.
func (r *RateLimited) Name() string { return r.Provider.Name() }

// Search waits for limiter capacity, then delegates.
func (r *RateLimited) Search(ctx context.Context, query string, maxResults int, cfg types.WebSearchConfig) ([]types.WebResult, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return r.Provider.Search(ctx, query, maxResults, cfg)
}

// NewProvider builds the configured provider wrapped with a shared rate
// limiter. An unknown provider name is a configuration error.
func NewProvider(cfg types.WebSearchConfig, client *http.Client) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case "", "tavily":
		p = &TavilyProvider{Client: client, APIKey: cfg.TavilyAPIKey}
	case "serper":
		p = &SerperProvider{Client: client, APIKey: cfg.SerperAPIKey}
	default:
		return nil, fmt.Errorf("unknown web search provider %q", cfg.Provider)
	}

	qps := cfg.QueriesPerSecond
	if qps <= 0 {
		qps = 2
	}
	return &RateLimited{Provider: p, Limiter: rate.NewLimiter(rate.Limit(qps), 1)}, nil
}

// SearchThemes fans one query per theme out to the provider concurrently
// and returns one ThemeSearch per theme, in theme order. Themes whose
// relevance falls under minRelevance are skipped entirely.
func SearchThemes(ctx context.Context, provider Provider, profile types.AssetProfile, themes []types.ThemeRelevance, daysLookback int, minRelevance float64, cfg types.WebSearchConfig, w io.Writer) []ThemeSearch {
	maxThemes := cfg.MaxThemes
	if maxThemes <= 0 {
		maxThemes = 3
	}
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}

	maxResults := cfg.MaxResultsPerTheme
	if maxResults <= 0 {
		maxResults = 5
	}

	searches := make([]ThemeSearch, 0, len(themes))
	for _, theme := range themes {
		if theme.RelevanceScore < minRelevance {
			continue
		}
		searches = append(searches, ThemeSearch{
			Theme: theme,
			Query: BuildQuery(profile, theme, daysLookback),
		})
	}

	var wg sync.WaitGroup
	for i := range searches {
		wg.Add(1)
		go func(ts *ThemeSearch) {
			defer wg.Done()
			ts.Results, ts.Err = provider.Search(ctx, ts.Query, maxResults, cfg)
			if ts.Err != nil {
				fmt.Fprintf(w, "warning: web search failed for theme %s: %v\n", ts.Theme.Theme, ts.Err)
			}
		}(&searches[i])
	}
	wg.Wait()

	return searches
}
