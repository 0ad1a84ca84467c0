// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name    string
	results map[string][]types.WebResult // query to results
	err     error
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(_ context.Context, query string, _ int, _ types.WebSearchConfig) ([]types.WebResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query], nil
}

func testProfile() types.AssetProfile {
	return types.AssetProfile{
		Name:       "Istanbul Financial Holdings",
		Country:    "Turkey",
		Region:     "Emerging Markets",
		Sector:     "Financials",
		AssetClass: "equity",
	}
}

// --- BuildQuery ---

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name         string
		profile      types.AssetProfile
		theme        types.ThemeRelevance
		daysLookback int
		want         string
	}{
		{
			"country with equity hint",
			testProfile(),
			types.ThemeRelevance{Theme: "supply_chain_risk"},
			90,
			"Turkey supply chain risk stock market impact",
		},
		{
			"region fallback when no country",
			types.AssetProfile{Region: "Emerging Markets", AssetClass: "commodity"},
			types.ThemeRelevance{Theme: "sanctions"},
			90,
			"Emerging Markets sanctions commodity prices",
		},
		{
			"short lookback adds recency words",
			types.AssetProfile{Country: "Turkey"},
			types.ThemeRelevance{Theme: "sanctions"},
			7,
			"Turkey sanctions recent news",
		},
		{
			"monthly lookback adds the year",
			types.AssetProfile{Country: "Turkey"},
			types.ThemeRelevance{Theme: "sanctions"},
			30,
			fmt.Sprintf("Turkey sanctions %d", time.Now().Year()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.profile, tt.theme, tt.daysLookback); got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- quality filters ---

func TestAcceptResult(t *testing.T) {
	goodTitle := "Sanctions tighten around central bank reserves"
	goodSnippet := "The measures announced this week are expected to restrict access to foreign reserves."

	tests := []struct {
		name    string
		title   string
		snippet string
		url     string
		want    bool
	}{
		{"substantial result", goodTitle, goodSnippet, "https://reuters.com/a/1", true},
		{"short title", "Too short", goodSnippet, "https://reuters.com/a/1", false},
		{"short snippet", goodTitle, "tiny", "https://reuters.com/a/1", false},
		{"empty url", goodTitle, goodSnippet, "", false},
		{"tag page", goodTitle, goodSnippet, "https://example.com/tag/turkey", false},
		{"social link", goodTitle, goodSnippet, "https://twitter.com/someone/status/1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AcceptResult(tt.title, tt.snippet, tt.url); got != tt.want {
				t.Errorf("AcceptResult() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTrustedDomain(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.reuters.com/world/article", true},
		{"https://feeds.bbc.co.uk/news/1", true},
		{"https://randomblog.net/post", false},
		{"https://reuters.com.evil.net/a", false},
		{"not a url at all ://", false},
	}
	for _, tt := range tests {
		if got := IsTrustedDomain(tt.url); got != tt.want {
			t.Errorf("IsTrustedDomain(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reuters.com/world/1", "reuters.com"},
		{"https://ft.com/content/abc", "ft.com"},
		{"", "web"},
	}
	for _, tt := range tests {
		if got := SourceName(tt.url); got != tt.want {
			t.Errorf("SourceName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		value    string
		wantZero bool
	}{
		{"2026-02-20T10:30:00Z", false},
		{"2026-02-20", false},
		{"Jan 2, 2026", false},
		{"three days ago", true},
		{"", true},
	}
	for _, tt := range tests {
		got := parseDate(tt.value)
		if got.IsZero() != tt.wantZero {
			t.Errorf("parseDate(%q).IsZero() = %v, want %v", tt.value, got.IsZero(), tt.wantZero)
		}
	}
}

// --- providers against httptest ---

func TestTavilySearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.APIKey != "tvly_test" {
			t.Errorf("api_key = %q, want tvly_test", req.APIKey)
		}
		if req.Query == "" {
			t.Error("query missing from request body")
		}
		if got := r.Header.Get("User-Agent"); got != "geointel-engine/0.1" {
			t.Errorf("User-Agent = %q, want the default agent", got)
		}

		fmt.Fprint(w, `{"results": [
			{"title": "Sanctions tighten around central bank reserves",
			 "url": "https://www.reuters.com/world/1",
			 "content": "The measures announced this week are expected to restrict reserve access.",
			 "published_date": "2026-02-20"},
			{"title": "Short",
			 "url": "https://example.com/2",
			 "content": "Too short to pass the quality gate."}
		]}`)
	}))
	defer ts.Close()

	old := tavilyAPIBase
	tavilyAPIBase = ts.URL
	defer func() { tavilyAPIBase = old }()

	p := &TavilyProvider{Client: ts.Client(), APIKey: "tvly_test"}
	results, err := p.Search(context.Background(), "Turkey sanctions", 5, types.WebSearchConfig{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (quality gate)", len(results))
	}

	r := results[0]
	if r.SourceName != "reuters.com" {
		t.Errorf("SourceName = %q, want reuters.com", r.SourceName)
	}
	if !r.Trusted {
		t.Error("reuters.com result should be trusted")
	}
	if r.PublishedAt.IsZero() {
		t.Error("published date not parsed")
	}
}

func TestTavilySearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := tavilyAPIBase
	tavilyAPIBase = ts.URL
	defer func() { tavilyAPIBase = old }()

	p := &TavilyProvider{Client: ts.Client(), APIKey: "bad"}
	if _, err := p.Search(context.Background(), "q", 5, types.WebSearchConfig{}); err == nil {
		t.Error("expected error for HTTP 401")
	}
}

func TestSerperSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-KEY"); got != "srp_test" {
			t.Errorf("X-API-KEY = %q, want srp_test", got)
		}
		if got := r.Header.Get("User-Agent"); got != "risk-desk/2.0" {
			t.Errorf("User-Agent = %q, want the configured agent", got)
		}
		fmt.Fprint(w, `{"news": [
			{"title": "Currency slides to a record low against the dollar",
			 "link": "https://www.ft.com/content/1",
			 "snippet": "The slide follows weeks of pressure on the monetary authorities.",
			 "date": "2026-02-21"},
			{"title": "Another substantial headline about market movements",
			 "link": "https://example.com/search?q=turkey",
			 "snippet": "This one is dropped for its low-quality aggregator URL pattern."}
		]}`)
	}))
	defer ts.Close()

	old := serperAPIBase
	serperAPIBase = ts.URL
	defer func() { serperAPIBase = old }()

	p := &SerperProvider{Client: ts.Client(), APIKey: "srp_test"}
	results, err := p.Search(context.Background(), "Turkey currency", 5,
		types.WebSearchConfig{HTTPConfig: types.HTTPConfig{UserAgent: "risk-desk/2.0"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].SourceName != "ft.com" || !results[0].Trusted {
		t.Errorf("result = %+v, want trusted ft.com", results[0])
	}
}

// --- provider factory ---

func TestNewProvider(t *testing.T) {
	client := &http.Client{}

	p, err := NewProvider(types.WebSearchConfig{Provider: "tavily", TavilyAPIKey: "k"}, client)
	if err != nil || p.Name() != "tavily" {
		t.Errorf("tavily factory = (%v, %v)", p, err)
	}

	p, err = NewProvider(types.WebSearchConfig{Provider: "serper", SerperAPIKey: "k"}, client)
	if err != nil || p.Name() != "serper" {
		t.Errorf("serper factory = (%v, %v)", p, err)
	}

	if _, err = NewProvider(types.WebSearchConfig{Provider: "bing"}, client); err == nil {
		t.Error("unknown provider should fail")
	}
}

// --- theme fan-out ---

func TestSearchThemes(t *testing.T) {
	profile := testProfile()
	themes := []types.ThemeRelevance{
		{Theme: "sanctions", RelevanceScore: 0.9},
		{Theme: "energy_security", RelevanceScore: 0.5},
		{Theme: "regulatory_changes", RelevanceScore: 0.1}, // under the floor
	}

	provider := &mockProvider{
		name: "mock",
		results: map[string][]types.WebResult{
			BuildQuery(profile, themes[0], 90): {{Title: "hit one", URL: "https://a/1"}},
			BuildQuery(profile, themes[1], 90): {{Title: "hit two", URL: "https://a/2"}},
		},
	}

	var buf bytes.Buffer
	searches := SearchThemes(context.Background(), provider, profile, themes, 90, 0.3, types.WebSearchConfig{}, &buf)

	if len(searches) != 2 {
		t.Fatalf("got %d searches, want 2 (floor excludes the third theme)", len(searches))
	}
	for _, ts := range searches {
		if ts.Err != nil {
			t.Errorf("theme %s: unexpected error %v", ts.Theme.Theme, ts.Err)
		}
		if len(ts.Results) != 1 {
			t.Errorf("theme %s: %d results, want 1", ts.Theme.Theme, len(ts.Results))
		}
	}
}

func TestSearchThemesDegradesOnError(t *testing.T) {
	profile := testProfile()
	themes := []types.ThemeRelevance{{Theme: "sanctions", RelevanceScore: 0.9}}
	provider := &mockProvider{name: "mock", err: fmt.Errorf("provider down")}

	var buf bytes.Buffer
	searches := SearchThemes(context.Background(), provider, profile, themes, 90, 0.3, types.WebSearchConfig{}, &buf)

	if len(searches) != 1 {
		t.Fatalf("got %d searches, want 1", len(searches))
	}
	if searches[0].Err == nil {
		t.Error("provider error not recorded")
	}
	if !strings.Contains(buf.String(), "provider down") {
		t.Errorf("warning not written: %q", buf.String())
	}
}

func TestSearchThemesCapsThemeCount(t *testing.T) {
	profile := testProfile()
	var themes []types.ThemeRelevance
	for i := 0; i < 6; i++ {
		themes = append(themes, types.ThemeRelevance{Theme: fmt.Sprintf("theme_%d", i), RelevanceScore: 0.9})
	}

	provider := &mockProvider{name: "mock"}
	searches := SearchThemes(context.Background(), provider, profile, themes, 90, 0.3,
		types.WebSearchConfig{MaxThemes: 3}, &bytes.Buffer{})

	if len(searches) != 3 {
		t.Errorf("got %d searches, want 3 (MaxThemes cap)", len(searches))
	}
}
