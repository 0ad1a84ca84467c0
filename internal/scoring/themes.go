// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"strings"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// defaultThemeKeywords is the fallback keyword set per theme, used when the
// upstream theme-identification collaborator did not attach matched
// keywords to a ThemeRelevance.
var defaultThemeKeywords = map[string][]string{
	"sanctions":             {"sanction", "embargo", "trade ban", "restriction"},
	"trade_disruption":      {"trade war", "tariff", "export ban", "import restriction", "supply chain"},
	"political_instability": {"coup", "election", "protest", "unrest", "regime change"},
	"currency_volatility":   {"currency", "inflation", "devaluation", "exchange rate", "monetary policy"},
	"energy_security":       {"energy", "oil", "gas", "pipeline", "supply", "sanction"},
	"regional_conflict":     {"conflict", "war", "military", "border", "dispute", "tension"},
	"regulatory_changes":    {"regulation", "policy", "law", "compliance", "government"},
	"supply_chain_risk":     {"supply chain", "manufacturing", "logistics", "trade"},
}

// ThemeKeywords returns the keyword set for one theme: the keywords the
// upstream matcher attached, or the built-in fallback for known themes.
func ThemeKeywords(theme types.ThemeRelevance) []string {
	if len(theme.KeywordsMatched) > 0 {
		return theme.KeywordsMatched
	}
	return defaultThemeKeywords[theme.Theme]
}

// minThemeRelevance is the floor below which a theme does not participate
// in keyword matching.
const minThemeRelevance = 0.2

// ThemeMatch scores keyword overlap between candidate text and each theme's
// keyword set, weighted by the theme's relevance, and returns the best
// score with its theme name. Themes under the relevance floor are skipped.
func (s *Scorer) ThemeMatch(text string, themes []types.ThemeRelevance) (float64, string) {
	textLower := strings.ToLower(text)
	bestScore := 0.0
	bestTheme := ""

	for _, theme := range themes {
		if theme.RelevanceScore < minThemeRelevance {
			continue
		}
		keywords := ThemeKeywords(theme)
		if len(keywords) == 0 {
			continue
		}

		matches := 0
		for _, kw := range keywords {
			if strings.Contains(textLower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := clamp01(float64(matches) / float64(len(keywords)) * theme.RelevanceScore)
		if score > bestScore {
			bestScore = score
			bestTheme = theme.Theme
		}
	}

	return bestScore, bestTheme
}

// topicKeywords classifies free text into a coarse topic. Used for web
// results, which arrive without one.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"security", []string{"military", "defense", "missile", "strike", "border", "troops"}},
	{"energy", []string{"gas", "oil", "energy", "pipeline", "nuclear", "power"}},
	{"diplomacy", []string{"talks", "summit", "minister", "agreement", "sanction"}},
	{"economy", []string{"trade", "tariff", "economy", "inflation", "export", "import"}},
	{"humanitarian", []string{"aid", "refugee", "humanitarian", "evacuation", "crisis"}},
}

// InferTopic returns the first coarse topic whose keywords appear in the
// text, or "general".
func InferTopic(text string) string {
	lowered := strings.ToLower(text)
	for _, tk := range topicKeywords {
		if containsAny(lowered, tk.keywords) {
			return tk.topic
		}
	}
	return "general"
}
