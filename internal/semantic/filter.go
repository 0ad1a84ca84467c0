// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semantic

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/geointel-engine/internal/cache"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

// Filter runs the per-signal semantic gate with bounded parallelism and a
// content-addressed assessment cache.
type Filter struct {
	classifier  Classifier
	assessments *cache.Cache[Assessment]
	threshold   float64
	concurrency int64
}

// NewFilter assembles a filter. The assessment cache may be shared across
// retrievals; keys depend only on signal and profile content.
func NewFilter(classifier Classifier, assessments *cache.Cache[Assessment], cfg types.SemanticConfig) *Filter {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 0.6
	}
	concurrency := int64(cfg.Concurrency)
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Filter{
		classifier:  classifier,
		assessments: assessments,
		threshold:   threshold,
		concurrency: concurrency,
	}
}

// Run assesses every signal and returns the survivors in input order plus
// the count removed. A positive threshold overrides the configured one, so
// the hot-reloadable scoring settings control the gate per retrieval. A
// classifier failure keeps the affected signal with its semantic fields
// zeroed.
func (f *Filter) Run(ctx context.Context, signals []types.IntelligenceSignal, profile types.AssetProfile, themes []types.ThemeRelevance, threshold float64, w io.Writer) ([]types.IntelligenceSignal, int) {
	if len(signals) == 0 {
		return signals, 0
	}
	if threshold <= 0 {
		threshold = f.threshold
	}

	type verdict struct {
		assessment Assessment
		ok         bool
	}
	verdicts := make([]verdict, len(signals))

	sem := semaphore.NewWeighted(f.concurrency)
	var wg sync.WaitGroup

	for i := range signals {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			key := assessmentKey(signals[i], profile, themes)
			a, _, err := f.assessments.GetOrFill(ctx, key, func(ctx context.Context) (Assessment, error) {
				return f.classifier.Assess(ctx, signals[i], profile, themes)
			})
			if err != nil {
				fmt.Fprintf(w, "warning: semantic assessment failed for %q: %v\n", signals[i].Title, err)
				return
			}
			verdicts[i] = verdict{assessment: a, ok: true}
		}(i)
	}
	wg.Wait()

	kept := make([]types.IntelligenceSignal, 0, len(signals))
	removed := 0
	for i, sig := range signals {
		v := verdicts[i]
		if !v.ok {
			// Fail open.
			kept = append(kept, sig)
			continue
		}
		if !v.assessment.IsRelevant || v.assessment.Relevance < threshold {
			removed++
			continue
		}
		sig.SemanticRelevance = v.assessment.Relevance
		sig.SemanticConfidence = v.assessment.Confidence
		sig.SemanticReasoning = v.assessment.Reasoning
		kept = append(kept, sig)
	}
	return kept, removed
}

// assessmentKey addresses an assessment by content so identical signals
// reuse cached verdicts across retrievals.
func assessmentKey(signal types.IntelligenceSignal, profile types.AssetProfile, themes []types.ThemeRelevance) string {
	names := make([]string, 0, len(themes))
	for _, t := range themes {
		names = append(names, t.Theme)
	}
	sort.Strings(names)
	return cache.Key(
		"semantic",
		signal.Title,
		signal.Summary,
		profile.Country,
		profile.Sector,
		strings.Join(names, ","),
	)
}
