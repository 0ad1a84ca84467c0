// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes the deterministic multi-factor relevance score
// for candidate signals. No stage in this package performs I/O; for fixed
// inputs and settings the scores are bit-for-bit reproducible.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// Scorer evaluates candidates against one asset profile and theme list
// using a fixed settings snapshot. Construct one per retrieval call.
type Scorer struct {
	settings types.ScoringSettings
	now      time.Time
}

// NewScorer returns a Scorer pinned to the given settings and clock reading.
// Pinning "now" keeps a single pipeline execution internally consistent.
func NewScorer(settings types.ScoringSettings, now time.Time) *Scorer {
	return &Scorer{settings: settings, now: now}
}

// regionKeywords maps a profile region to substrings that identify it in
// free-text country names. Table-driven so new regions are one line.
var regionKeywords = map[string][]string{
	"Emerging Markets": {"emerging", "developing"},
	"Europe":           {"europe", "european"},
	"Asia":             {"asia", "asian"},
	"Americas":         {"america", "american"},
	"Middle East":      {"middle east", "mideast"},
}

// BaseRelevance scores country/region/sector alignment between a candidate
// and the profile. Exact country match scores highest, partial match and
// region match mid-tier, sector match alone lowest. The result is clamped
// to [0,1].
func (s *Scorer) BaseRelevance(c types.RawCandidate, countries []string, profile types.AssetProfile) float64 {
	score := 0.0

	if profile.Country != "" {
		exact := false
		partial := false
		for _, country := range countries {
			if country == profile.Country {
				exact = true
				break
			}
			if strings.Contains(strings.ToLower(country), strings.ToLower(profile.Country)) {
				partial = true
			}
		}
		switch {
		case exact:
			score += s.settings.ScoreCountryExactMatch
		case partial:
			score += s.settings.ScoreCountryPartialMatch
		}
	}

	if profile.Region != "" {
		regionLower := strings.ToLower(profile.Region)
		kws := regionKeywords[profile.Region]
		for _, country := range countries {
			countryLower := strings.ToLower(country)
			if strings.Contains(countryLower, regionLower) || containsAny(countryLower, kws) {
				score += s.settings.ScoreRegionMatch
				break
			}
		}
	}

	if profile.Sector != "" {
		text := strings.ToLower(c.Topic + " " + c.Title)
		sectorLower := strings.ToLower(profile.Sector)
		if strings.Contains(text, sectorLower) || strings.Contains(sectorLower, text) {
			score += s.settings.ScoreSectorMatch
		}
	}

	return clamp01(score)
}

// SnapshotBaseRelevance scores a country-snapshot candidate. Snapshots are
// aggregated country intelligence, so a country match carries a 1.4 boost
// over the global-item tiers.
func (s *Scorer) SnapshotBaseRelevance(snapshotCountry string, profile types.AssetProfile) float64 {
	score := 0.0

	if profile.Country != "" {
		countryLower := strings.ToLower(profile.Country)
		snapLower := strings.ToLower(snapshotCountry)
		switch {
		case countryLower == snapLower:
			score += s.settings.ScoreCountryExactMatch * 1.4
		case strings.Contains(snapLower, countryLower):
			score += s.settings.ScoreCountryPartialMatch * 1.4
		}
	}

	if profile.Region != "" {
		if containsAny(strings.ToLower(snapshotCountry), regionKeywords[profile.Region]) {
			score += s.settings.ScoreRegionMatch
		}
	}

	return clamp01(score)
}

// RecencyScore decays exponentially with age: e^(-days/decay). Candidates
// older than the lookback window score 0 and must be dropped by the caller
// before further scoring.
func (s *Scorer) RecencyScore(publishedAt time.Time, daysLookback int) float64 {
	if publishedAt.IsZero() {
		return 0.0
	}
	daysAgo := s.now.Sub(publishedAt).Hours() / 24
	if daysAgo < 0 {
		daysAgo = 0
	}
	if daysAgo > float64(daysLookback) {
		return 0.0
	}
	decay := s.settings.RecencyDecayConstant
	if decay <= 0 {
		decay = 30.0
	}
	return clamp01(math.Exp(-daysAgo / decay))
}

// WithinLookback reports whether a candidate's publication date falls inside
// the lookback window. Unknown dates are treated as out of window.
func (s *Scorer) WithinLookback(publishedAt time.Time, daysLookback int) bool {
	if publishedAt.IsZero() {
		return false
	}
	return s.now.Sub(publishedAt) <= time.Duration(daysLookback)*24*time.Hour
}

// SourceQualityScore looks up the source name in the quality table: exact
// match, then case-insensitive, then substring either way, then the table's
// default tier.
func (s *Scorer) SourceQualityScore(sourceName string) float64 {
	table := s.settings.SourceQualityScores
	if score, ok := table[sourceName]; ok {
		return score
	}

	sourceLower := strings.ToLower(sourceName)
	for name, score := range table {
		if name == "default" {
			continue
		}
		if strings.ToLower(name) == sourceLower {
			return score
		}
	}
	if sourceLower != "" {
		for name, score := range table {
			if name == "default" {
				continue
			}
			nameLower := strings.ToLower(name)
			if strings.Contains(sourceLower, nameLower) || strings.Contains(nameLower, sourceLower) {
				return score
			}
		}
	}

	if d, ok := table["default"]; ok {
		return d
	}
	return 0.7
}

// ActivityLevelScore looks up a country activity level (Critical/High/
// Medium/Low) in the settings table, falling back to the table default.
func (s *Scorer) ActivityLevelScore(level string) float64 {
	table := s.settings.ActivityLevelScores
	if score, ok := table[level]; ok {
		return score
	}
	if d, ok := table["default"]; ok {
		return d
	}
	return 0.3
}

// FinalScore combines the five factors with the configured weights. When a
// candidate carries no activity level (global items, web results) the
// activity weight is redistributed proportionally across the other four so
// those candidates are not structurally penalized. The result is clamped
// to [0,1].
func (s *Scorer) FinalScore(baseRelevance, themeMatch, recency, sourceQuality, activityLevel float64) float64 {
	w := s.settings

	if activityLevel == 0.0 {
		totalOther := w.WeightBaseRelevance + w.WeightThemeMatch + w.WeightRecency + w.WeightSourceQuality
		if totalOther > 0 {
			scale := 1.0 / totalOther
			return clamp01(
				baseRelevance*w.WeightBaseRelevance*scale +
					themeMatch*w.WeightThemeMatch*scale +
					recency*w.WeightRecency*scale +
					sourceQuality*w.WeightSourceQuality*scale)
		}
	}

	return clamp01(
		baseRelevance*w.WeightBaseRelevance +
			themeMatch*w.WeightThemeMatch +
			recency*w.WeightRecency +
			sourceQuality*w.WeightSourceQuality +
			activityLevel*w.WeightActivityLevel)
}

// Settings returns the settings snapshot the scorer was built with.
func (s *Scorer) Settings() types.ScoringSettings {
	return s.settings
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
