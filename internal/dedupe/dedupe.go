// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe removes redundant signals after scoring: exact URL
// collisions and near-duplicate titles. Running after scoring means the
// retained copy of a story is always the highest-value one.
package dedupe

import (
	"strings"
	"unicode"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// stopWords are excluded from title word sets so boilerplate does not
// inflate overlap.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"as": true,
}

// Deduplicate merges signals that share a URL or whose titles overlap at or
// above threshold. On a collision the signal with the higher final score
// wins; ties keep the earlier-discovered one. Returns the surviving set and
// the number removed.
func Deduplicate(signals []types.IntelligenceSignal, threshold float64) ([]types.IntelligenceSignal, int) {
	if threshold <= 0 {
		threshold = 0.7
	}

	var kept []types.IntelligenceSignal
	var wordSets []map[string]bool
	byURL := make(map[string]int) // URL → index in kept
	removed := 0

	replace := func(idx int, s types.IntelligenceSignal, words map[string]bool) {
		if kept[idx].URL != "" {
			delete(byURL, kept[idx].URL)
		}
		kept[idx] = s
		wordSets[idx] = words
		if s.URL != "" {
			byURL[s.URL] = idx
		}
	}

	for _, s := range signals {
		words := titleWords(s.Title)

		if s.URL != "" {
			if idx, ok := byURL[s.URL]; ok {
				removed++
				if s.FinalRelevanceScore > kept[idx].FinalRelevanceScore {
					replace(idx, s, words)
				}
				continue
			}
		}

		dupIdx := -1
		for i, ws := range wordSets {
			if jaccard(words, ws) >= threshold {
				dupIdx = i
				break
			}
		}
		if dupIdx >= 0 {
			removed++
			if s.FinalRelevanceScore > kept[dupIdx].FinalRelevanceScore {
				replace(dupIdx, s, words)
			}
			continue
		}

		kept = append(kept, s)
		wordSets = append(wordSets, words)
		if s.URL != "" {
			byURL[s.URL] = len(kept) - 1
		}
	}

	return kept, removed
}

// TitlesSimilar reports whether two titles share enough significant words
// to be the same story.
func TitlesSimilar(a, b string, threshold float64) bool {
	if threshold <= 0 {
		threshold = 0.7
	}
	return jaccard(titleWords(a), titleWords(b)) >= threshold
}

// titleWords returns the lowercased, punctuation-stripped significant words
// of a title as a set.
func titleWords(title string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(b.String()) {
		if !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

// jaccard computes set overlap: |A∩B| / |A∪B|. Empty sets never match.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
