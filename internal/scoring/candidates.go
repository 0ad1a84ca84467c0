// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"sort"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// snapshotSourceQuality is the fixed quality tier for snapshot events.
// Snapshots are aggregated country intelligence without a named source.
const snapshotSourceQuality = 0.8

// webBaseRelevance is the conservative base tier for web results: they
// matched a theme query but have not been validated against the asset yet.
const webBaseRelevance = 0.5

// trustedSourceBoost is added to the quality score of web results from the
// trusted news-domain list.
const trustedSourceBoost = 0.1

// ScoreGlobalItem converts a datastore item into a scored signal. The
// second return is false when the item falls outside the lookback window.
func (s *Scorer) ScoreGlobalItem(item types.GlobalItem, profile types.AssetProfile, themes []types.ThemeRelevance, daysLookback int) (types.IntelligenceSignal, bool) {
	if !s.WithinLookback(item.PublishedAt, daysLookback) {
		return types.IntelligenceSignal{}, false
	}

	candidate := types.RawCandidate{
		Origin: types.OriginGlobalItem,
		Title:  item.Title,
		Topic:  item.Topic,
	}
	base := s.BaseRelevance(candidate, item.Countries, profile)
	themeScore, matchedTheme := s.ThemeMatch(item.Title+" "+item.Summary+" "+item.Topic, themes)
	recency := s.RecencyScore(item.PublishedAt, daysLookback)
	quality := s.SourceQualityScore(item.SourceName)
	final := s.FinalScore(base, themeScore, recency, quality, 0.0)

	return types.IntelligenceSignal{
		Origin:              types.OriginGlobalItem,
		Title:               item.Title,
		Summary:             item.Summary,
		Topic:               item.Topic,
		SourceName:          item.SourceName,
		URL:                 item.URL,
		PublishedAt:         item.PublishedAt,
		Country:             pickCountry(item.Countries, profile),
		ThemeMatch:          matchedTheme,
		BaseRelevance:       base,
		ThemeMatchScore:     themeScore,
		RecencyScore:        recency,
		SourceQualityScore:  quality,
		ActivityLevelScore:  0.0,
		FinalRelevanceScore: final,
	}, true
}

// ScoreSnapshot converts a country snapshot into scored signals, one per
// selected event. Events are ranked by theme match and capped at maxEvents;
// when nothing matches the first event stands in so an active country is
// never silently dropped.
func (s *Scorer) ScoreSnapshot(snapshot types.CountrySnapshot, profile types.AssetProfile, themes []types.ThemeRelevance, daysLookback, maxEvents int) []types.IntelligenceSignal {
	if !s.WithinLookback(snapshot.UpdatedAt, daysLookback) {
		return nil
	}

	events := s.topEvents(snapshot.Events, themes, maxEvents)
	if len(events) == 0 && len(snapshot.Events) > 0 {
		events = snapshot.Events[:1]
	}

	var signals []types.IntelligenceSignal
	for _, event := range events {
		base := s.SnapshotBaseRelevance(snapshot.Name, profile)
		eventText := event.Title + " " + event.Summary + " " + event.Why + " " + event.Topic
		themeScore, matchedTheme := s.ThemeMatch(eventText, themes)
		recency := s.RecencyScore(snapshot.UpdatedAt, daysLookback)
		activity := s.ActivityLevelScore(snapshot.ActivityLevel)
		final := s.FinalScore(base, themeScore, recency, snapshotSourceQuality, activity)

		signals = append(signals, types.IntelligenceSignal{
			Origin:              types.OriginCountrySnapshot,
			Title:               event.Title,
			Summary:             event.Summary,
			Topic:               event.Topic,
			PublishedAt:         snapshot.UpdatedAt,
			Country:             snapshot.Name,
			ActivityLevel:       snapshot.ActivityLevel,
			ThemeMatch:          matchedTheme,
			BaseRelevance:       base,
			ThemeMatchScore:     themeScore,
			RecencyScore:        recency,
			SourceQualityScore:  snapshotSourceQuality,
			ActivityLevelScore:  activity,
			FinalRelevanceScore: final,
		})
	}
	return signals
}

// ScoreWebResult converts a web-search hit into a scored signal. The theme
// that produced the query supplies the theme match directly.
func (s *Scorer) ScoreWebResult(r types.WebResult, profile types.AssetProfile, theme types.ThemeRelevance, daysLookback int) types.IntelligenceSignal {
	publishedAt := r.PublishedAt
	if publishedAt.IsZero() {
		// Providers often omit dates on fresh stories; treat as current.
		publishedAt = s.now
	}

	quality := s.SourceQualityScore(r.SourceName)
	if r.Trusted {
		quality = clamp01(quality + trustedSourceBoost)
	}
	recency := s.RecencyScore(publishedAt, daysLookback)
	final := s.FinalScore(webBaseRelevance, theme.RelevanceScore, recency, quality, 0.0)

	summary := r.Snippet
	if len(summary) > 300 {
		summary = summary[:300]
	}

	return types.IntelligenceSignal{
		Origin:              types.OriginWebSearch,
		Title:               r.Title,
		Summary:             summary,
		Topic:               InferTopic(r.Title + " " + r.Snippet),
		SourceName:          r.SourceName,
		URL:                 r.URL,
		PublishedAt:         publishedAt,
		Country:             profile.Country,
		ThemeMatch:          theme.Theme,
		BaseRelevance:       webBaseRelevance,
		ThemeMatchScore:     theme.RelevanceScore,
		RecencyScore:        recency,
		SourceQualityScore:  quality,
		ActivityLevelScore:  0.0,
		FinalRelevanceScore: final,
	}
}

// topEvents ranks snapshot events by theme match and returns the best
// maxEvents that matched at all.
func (s *Scorer) topEvents(events []types.SnapshotEvent, themes []types.ThemeRelevance, maxEvents int) []types.SnapshotEvent {
	type scored struct {
		score float64
		event types.SnapshotEvent
	}
	var ranked []scored
	for _, event := range events {
		text := event.Title + " " + event.Summary + " " + event.Why + " " + event.Topic
		score, _ := s.ThemeMatch(text, themes)
		if score > 0 {
			ranked = append(ranked, scored{score, event})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if maxEvents > 0 && len(ranked) > maxEvents {
		ranked = ranked[:maxEvents]
	}
	out := make([]types.SnapshotEvent, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.event)
	}
	return out
}

// pickCountry chooses the most relevant country tag for a signal: the
// profile's own country when the item mentions it, otherwise the item's
// first country.
func pickCountry(countries []string, profile types.AssetProfile) string {
	for _, c := range countries {
		if c == profile.Country {
			return c
		}
	}
	if len(countries) > 0 {
		return countries[0]
	}
	return ""
}
