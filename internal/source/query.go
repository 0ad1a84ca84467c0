// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// BuildQuery assembles the search string for one theme: geography first,
// then the theme phrase, an asset-class hint, and a time qualifier scaled
// to the lookback window.
func BuildQuery(profile types.AssetProfile, theme types.ThemeRelevance, daysLookback int) string {
	var parts []string

	if profile.Country != "" {
		parts = append(parts, profile.Country)
	} else if profile.Region != "" {
		parts = append(parts, profile.Region)
	}

	parts = append(parts, themePhrase(theme.Theme))

	if hint := assetClassHint(profile.AssetClass); hint != "" {
		parts = append(parts, hint)
	}

	switch {
	case daysLookback > 0 && daysLookback <= 7:
		parts = append(parts, "recent news")
	case daysLookback > 0 && daysLookback <= 30:
		parts = append(parts, fmt.Sprintf("%d", time.Now().Year()))
	}

	return strings.Join(parts, " ")
}

// themePhrase turns a machine theme key into search words, e.g.
// "supply_chain_disruption" becomes "supply chain disruption".
func themePhrase(theme string) string {
	return strings.ToLower(strings.ReplaceAll(theme, "_", " "))
}

func assetClassHint(assetClass string) string {
	switch strings.ToLower(assetClass) {
	case "equity", "equities":
		return "stock market impact"
	case "fixed_income", "bond", "bonds":
		return "sovereign debt bonds"
	case "commodity", "commodities":
		return "commodity prices"
	case "currency", "fx":
		return "currency exchange rate"
	default:
		return ""
	}
}
