// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testScorer() *Scorer {
	return NewScorer(types.DefaultScoringSettings(), testNow)
}

func turkeyProfile() types.AssetProfile {
	return types.AssetProfile{
		ID:         "asset-tr-1",
		Name:       "Istanbul Financial Holdings",
		Country:    "Turkey",
		Region:     "Emerging Markets",
		Sector:     "Financials",
		AssetClass: "equity",
	}
}

// --- RecencyScore ---

func TestRecencyScore(t *testing.T) {
	s := testScorer()

	tests := []struct {
		name    string
		daysAgo int
		want    float64
	}{
		{"today", 0, 1.0},
		{"ten days", 10, math.Exp(-10.0 / 30.0)},
		{"thirty days", 30, math.Exp(-1.0)},
		{"outside lookback", 95, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			published := testNow.AddDate(0, 0, -tt.daysAgo)
			got := s.RecencyScore(published, 90)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RecencyScore(%d days) = %v, want %v", tt.daysAgo, got, tt.want)
			}
		})
	}
}

func TestRecencyScoreZeroDate(t *testing.T) {
	s := testScorer()
	if got := s.RecencyScore(time.Time{}, 90); got != 0.0 {
		t.Errorf("RecencyScore(zero) = %v, want 0", got)
	}
}

func TestRecencyScoreFutureDateClamped(t *testing.T) {
	s := testScorer()
	future := testNow.Add(48 * time.Hour)
	if got := s.RecencyScore(future, 90); got != 1.0 {
		t.Errorf("RecencyScore(future) = %v, want 1.0", got)
	}
}

// --- lookback window ---

func TestWithinLookback(t *testing.T) {
	s := testScorer()

	tests := []struct {
		name    string
		daysAgo int
		want    bool
	}{
		{"today", 0, true},
		{"ten days", 10, true},
		{"forty days", 40, true},
		{"ninety five days", 95, false},
		{"hundred twenty days", 120, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			published := testNow.AddDate(0, 0, -tt.daysAgo)
			if got := s.WithinLookback(published, 90); got != tt.want {
				t.Errorf("WithinLookback(%d days) = %v, want %v", tt.daysAgo, got, tt.want)
			}
		})
	}
}

// ScoreGlobalItem drops out-of-window items entirely and the freshest item
// carries the highest recency factor.
func TestScoreGlobalItemLookbackGate(t *testing.T) {
	s := testScorer()
	profile := turkeyProfile()
	themes := []types.ThemeRelevance{{Theme: "sanctions", RelevanceScore: 0.8}}

	ages := []int{0, 10, 40, 95, 120}
	var scored []types.IntelligenceSignal
	for _, age := range ages {
		item := types.GlobalItem{
			Title:       "Sanction pressure on Turkish banks grows",
			Summary:     "New embargo measures announced.",
			Topic:       "sanctions",
			SourceName:  "Reuters",
			Countries:   []string{"Turkey"},
			PublishedAt: testNow.AddDate(0, 0, -age),
		}
		if sig, ok := s.ScoreGlobalItem(item, profile, themes, 90); ok {
			scored = append(scored, sig)
		}
	}

	if len(scored) != 3 {
		t.Fatalf("scored %d items, want 3 (95- and 120-day items dropped)", len(scored))
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].RecencyScore >= scored[0].RecencyScore {
			t.Errorf("item aged %d days outranks the same-day item on recency", ages[i])
		}
	}
}

// --- BaseRelevance ---

func TestBaseRelevance(t *testing.T) {
	s := testScorer()

	tests := []struct {
		name      string
		countries []string
		profile   types.AssetProfile
		want      float64
	}{
		{
			"exact country match",
			[]string{"Turkey"},
			types.AssetProfile{Country: "Turkey"},
			0.5,
		},
		{
			"partial country match",
			[]string{"Turkey-Syria border region"},
			types.AssetProfile{Country: "Turkey"},
			0.3,
		},
		{
			"region keyword match",
			[]string{"Emerging market economies"},
			types.AssetProfile{Region: "Emerging Markets"},
			0.2,
		},
		{
			"no match",
			[]string{"Brazil"},
			types.AssetProfile{Country: "Turkey"},
			0.0,
		},
		{
			"country and region stack",
			[]string{"Turkey", "developing economies"},
			types.AssetProfile{Country: "Turkey", Region: "Emerging Markets"},
			0.7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.BaseRelevance(types.RawCandidate{}, tt.countries, tt.profile)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BaseRelevance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaseRelevanceSectorMatch(t *testing.T) {
	s := testScorer()
	c := types.RawCandidate{Title: "Financials under pressure", Topic: "economy"}
	got := s.BaseRelevance(c, nil, types.AssetProfile{Sector: "Financials"})
	if math.Abs(got-0.2) > 1e-9 {
		t.Errorf("BaseRelevance(sector only) = %v, want 0.2", got)
	}
}

func TestSnapshotBaseRelevanceBoost(t *testing.T) {
	s := testScorer()
	profile := types.AssetProfile{Country: "Turkey"}

	exact := s.SnapshotBaseRelevance("turkey", profile)
	if math.Abs(exact-0.7) > 1e-9 {
		t.Errorf("exact snapshot match = %v, want 0.7 (0.5 * 1.4)", exact)
	}

	partial := s.SnapshotBaseRelevance("Turkey and neighbors", profile)
	if math.Abs(partial-0.42) > 1e-9 {
		t.Errorf("partial snapshot match = %v, want 0.42 (0.3 * 1.4)", partial)
	}
}

// --- SourceQualityScore ---

func TestSourceQualityScore(t *testing.T) {
	s := testScorer()

	tests := []struct {
		name   string
		source string
		want   float64
	}{
		{"exact match", "Reuters", 1.0},
		{"case insensitive", "reuters", 1.0},
		{"substring match", "Reuters Business", 1.0},
		{"unknown source", "Random Blog", 0.7},
		{"empty source", "", 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SourceQualityScore(tt.source); got != tt.want {
				t.Errorf("SourceQualityScore(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

// --- ActivityLevelScore ---

func TestActivityLevelScore(t *testing.T) {
	s := testScorer()

	tests := []struct {
		level string
		want  float64
	}{
		{"Critical", 1.0},
		{"High", 0.8},
		{"Medium", 0.5},
		{"Low", 0.2},
		{"Unknown", 0.3},
	}
	for _, tt := range tests {
		if got := s.ActivityLevelScore(tt.level); got != tt.want {
			t.Errorf("ActivityLevelScore(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// --- ThemeMatch ---

func TestThemeMatch(t *testing.T) {
	s := testScorer()

	themes := []types.ThemeRelevance{
		{Theme: "sanctions", RelevanceScore: 0.8},
		{Theme: "energy_security", RelevanceScore: 0.6},
	}

	score, theme := s.ThemeMatch("New sanction and embargo measures on oil exports", themes)
	if theme != "sanctions" {
		t.Errorf("matched theme = %q, want sanctions", theme)
	}
	// 2 of 4 sanction keywords match: 0.5 * 0.8 = 0.4.
	if math.Abs(score-0.4) > 1e-9 {
		t.Errorf("theme score = %v, want 0.4", score)
	}
}

func TestThemeMatchUsesAttachedKeywords(t *testing.T) {
	s := testScorer()

	themes := []types.ThemeRelevance{
		{Theme: "custom_theme", RelevanceScore: 1.0, KeywordsMatched: []string{"lira", "bond"}},
	}
	score, theme := s.ThemeMatch("Lira slides as bond yields spike", themes)
	if theme != "custom_theme" {
		t.Errorf("matched theme = %q, want custom_theme", theme)
	}
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("theme score = %v, want 1.0 (both keywords matched)", score)
	}
}

func TestThemeMatchSkipsLowRelevanceThemes(t *testing.T) {
	s := testScorer()

	themes := []types.ThemeRelevance{{Theme: "sanctions", RelevanceScore: 0.1}}
	score, theme := s.ThemeMatch("sanction embargo trade ban restriction", themes)
	if score != 0.0 || theme != "" {
		t.Errorf("ThemeMatch below floor = (%v, %q), want (0, \"\")", score, theme)
	}
}

// --- FinalScore ---

func TestFinalScoreWeighting(t *testing.T) {
	s := testScorer()

	// All factors at 1.0 must give 1.0 regardless of redistribution.
	if got := s.FinalScore(1, 1, 1, 1, 1); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("FinalScore(all 1) = %v, want 1.0", got)
	}

	got := s.FinalScore(0.5, 0.4, 0.8, 0.9, 0.8)
	want := 0.5*0.3 + 0.4*0.25 + 0.8*0.2 + 0.9*0.15 + 0.8*0.1
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FinalScore = %v, want %v", got, want)
	}
}

func TestFinalScoreRedistributesActivityWeight(t *testing.T) {
	s := testScorer()

	// With no activity factor the other four weights are rescaled to sum 1,
	// so equal factors still give that factor back.
	got := s.FinalScore(0.6, 0.6, 0.6, 0.6, 0.0)
	if math.Abs(got-0.6) > 1e-9 {
		t.Errorf("FinalScore(redistributed) = %v, want 0.6", got)
	}

	with := s.FinalScore(0.6, 0.6, 0.6, 0.6, 0.0)
	without := 0.6*0.3 + 0.6*0.25 + 0.6*0.2 + 0.6*0.15
	if with <= without {
		t.Errorf("redistribution should lift score above raw sum: %v <= %v", with, without)
	}
}

// --- candidate conversion ---

func TestScoreWebResultTrustedBoost(t *testing.T) {
	s := testScorer()
	profile := turkeyProfile()
	theme := types.ThemeRelevance{Theme: "sanctions", RelevanceScore: 0.8}

	plain := types.WebResult{
		Title:       "Turkey faces new export restrictions on machinery",
		Snippet:     "Measures announced this week are expected to affect industrial exporters.",
		URL:         "https://example.com/news/1",
		SourceName:  "example.com",
		PublishedAt: testNow.AddDate(0, 0, -2),
	}
	trusted := plain
	trusted.Trusted = true

	sigPlain := s.ScoreWebResult(plain, profile, theme, 90)
	sigTrusted := s.ScoreWebResult(trusted, profile, theme, 90)

	if math.Abs(sigTrusted.SourceQualityScore-sigPlain.SourceQualityScore-0.1) > 1e-9 {
		t.Errorf("trusted boost = %v, want +0.1",
			sigTrusted.SourceQualityScore-sigPlain.SourceQualityScore)
	}
	if sigTrusted.FinalRelevanceScore <= sigPlain.FinalRelevanceScore {
		t.Error("trusted result should outrank identical untrusted result")
	}
}

func TestScoreWebResultZeroDateTreatedAsCurrent(t *testing.T) {
	s := testScorer()
	r := types.WebResult{
		Title:   "Fresh story with no date from the provider feed",
		Snippet: "Snippet text long enough to pass quality filters in the adapter.",
		URL:     "https://example.com/news/2",
	}
	sig := s.ScoreWebResult(r, turkeyProfile(), types.ThemeRelevance{Theme: "sanctions", RelevanceScore: 0.5}, 90)
	if sig.RecencyScore != 1.0 {
		t.Errorf("RecencyScore for undated result = %v, want 1.0", sig.RecencyScore)
	}
	if !sig.PublishedAt.Equal(testNow) {
		t.Errorf("PublishedAt = %v, want pinned now %v", sig.PublishedAt, testNow)
	}
}

func TestScoreWebResultTruncatesSnippet(t *testing.T) {
	s := testScorer()
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	r := types.WebResult{Title: "A sufficiently long headline here", Snippet: string(long), URL: "https://example.com/3"}
	sig := s.ScoreWebResult(r, turkeyProfile(), types.ThemeRelevance{Theme: "sanctions", RelevanceScore: 0.5}, 90)
	if len(sig.Summary) != 300 {
		t.Errorf("summary length = %d, want 300", len(sig.Summary))
	}
}

func TestScoreSnapshotSelectsThemedEvents(t *testing.T) {
	s := testScorer()
	profile := turkeyProfile()
	themes := []types.ThemeRelevance{{Theme: "sanctions", RelevanceScore: 0.9}}

	snap := types.CountrySnapshot{
		Name:          "Turkey",
		ActivityLevel: "High",
		UpdatedAt:     testNow.AddDate(0, 0, -1),
		Events: []types.SnapshotEvent{
			{Title: "Local sports update", Summary: "Nothing geopolitical"},
			{Title: "Embargo tightened", Summary: "New sanction measures", Topic: "sanctions"},
			{Title: "Trade ban extended", Summary: "Export restriction widened"},
			{Title: "Embargo talks", Summary: "Sanction negotiations continue"},
			{Title: "More restriction news", Summary: "Another sanction headline"},
		},
	}

	signals := s.ScoreSnapshot(snap, profile, themes, 90, 3)
	if len(signals) != 3 {
		t.Fatalf("got %d signals, want 3 (event cap)", len(signals))
	}
	for _, sig := range signals {
		if sig.Origin != types.OriginCountrySnapshot {
			t.Errorf("origin = %q, want country_snapshot", sig.Origin)
		}
		if sig.ActivityLevel != "High" {
			t.Errorf("activity level = %q, want High", sig.ActivityLevel)
		}
		if sig.ThemeMatchScore == 0 {
			t.Errorf("selected event %q has zero theme match", sig.Title)
		}
	}
}

func TestScoreSnapshotFallsBackToFirstEvent(t *testing.T) {
	s := testScorer()
	snap := types.CountrySnapshot{
		Name:          "Turkey",
		ActivityLevel: "Critical",
		UpdatedAt:     testNow,
		Events: []types.SnapshotEvent{
			{Title: "Unrelated event", Summary: "No theme keywords at all"},
			{Title: "Second unrelated event", Summary: "Still nothing"},
		},
	}
	signals := s.ScoreSnapshot(snap, turkeyProfile(), []types.ThemeRelevance{{Theme: "sanctions", RelevanceScore: 0.9}}, 90, 3)
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1 (first-event fallback)", len(signals))
	}
	if signals[0].Title != "Unrelated event" {
		t.Errorf("fallback picked %q, want the first event", signals[0].Title)
	}
}

func TestScoreSnapshotOutsideLookback(t *testing.T) {
	s := testScorer()
	snap := types.CountrySnapshot{
		Name:          "Turkey",
		ActivityLevel: "High",
		UpdatedAt:     testNow.AddDate(0, 0, -120),
		Events:        []types.SnapshotEvent{{Title: "Old event"}},
	}
	if got := s.ScoreSnapshot(snap, turkeyProfile(), nil, 90, 3); got != nil {
		t.Errorf("stale snapshot produced %d signals, want none", len(got))
	}
}

// --- InferTopic ---

func TestInferTopic(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Military strike near the border", "security"},
		{"Pipeline gas exports resume", "energy"},
		{"Ministers hold summit talks", "diplomacy"},
		{"Tariff hike hits exports", "economy"},
		{"Refugee crisis deepens", "humanitarian"},
		{"Completely unrelated text", "general"},
	}
	for _, tt := range tests {
		if got := InferTopic(tt.text); got != tt.want {
			t.Errorf("InferTopic(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
