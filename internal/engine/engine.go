// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates the retrieval pipeline: concurrent source
// fan-out, deterministic scoring, deduplication, the optional AI stages,
// and final ranking. The datastore is authoritative and its failure fails
// the call; web search and the AI stages degrade gracefully.
package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/geointel-engine/internal/cache"
	"github.com/pdiddy/geointel-engine/internal/dedupe"
	"github.com/pdiddy/geointel-engine/internal/scoring"
	"github.com/pdiddy/geointel-engine/internal/semantic"
	"github.com/pdiddy/geointel-engine/internal/source"
	"github.com/pdiddy/geointel-engine/internal/store"
	"github.com/pdiddy/geointel-engine/internal/validate"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

// Datastore is the slice of the store the engine needs. Satisfied by
// *store.Store; tests substitute fakes.
type Datastore interface {
	GlobalItems(ctx context.Context, f store.ItemFilter) ([]types.GlobalItem, error)
	Snapshots(ctx context.Context, f store.SnapshotFilter) ([]types.CountrySnapshot, error)
	ActiveSettings(ctx context.Context) (types.ScoringSettings, error)
}

// Request carries one retrieval call's inputs. Zero DaysLookback and
// MaxSignals take the active settings' defaults.
type Request struct {
	Profile      types.AssetProfile
	Themes       []types.ThemeRelevance
	DaysLookback int
	MaxSignals   int
}

// Engine runs the signal retrieval pipeline.
type Engine struct {
	store     Datastore
	provider  source.Provider
	filter    *semantic.Filter
	validator validate.Validator

	pipeline *cache.Cache[types.RetrievalResult]
	settings *cache.Cache[types.ScoringSettings]

	cfg types.EngineConfig
	out io.Writer
}

// New assembles an engine. filter and validator may be nil, which disables
// the corresponding stage regardless of configuration.
func New(ds Datastore, provider source.Provider, filter *semantic.Filter, validator validate.Validator, pipeline *cache.Cache[types.RetrievalResult], cfg types.EngineConfig, out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	settingsTTL := cfg.Cache.PipelineTTL
	if settingsTTL <= 0 {
		settingsTTL = 10 * time.Minute
	}
	return &Engine{
		store:     ds,
		provider:  provider,
		filter:    filter,
		validator: validator,
		pipeline:  pipeline,
		settings:  cache.New[types.ScoringSettings](settingsTTL),
		cfg:       cfg,
		out:       out,
	}
}

// Retrieve executes the pipeline for one asset, serving from the pipeline
// cache when an identical call is still fresh. Scoring settings are
// memoized for the same TTL, so a cached call touches no external
// capability at all.
func (e *Engine) Retrieve(ctx context.Context, req Request) (types.RetrievalResult, error) {
	settings := e.activeSettings(ctx)

	if req.DaysLookback <= 0 {
		req.DaysLookback = settings.DaysLookbackDefault
	}
	if req.MaxSignals <= 0 {
		req.MaxSignals = settings.MaxSignalsDefault
	}

	key := pipelineKey(req, settings)
	result, fromCache, err := e.pipeline.GetOrFill(ctx, key, func(ctx context.Context) (types.RetrievalResult, error) {
		return e.run(ctx, req, settings)
	})
	if err != nil {
		return types.RetrievalResult{}, err
	}
	result.FromCache = fromCache
	return result, nil
}

// activeSettings returns the memoized active scoring settings, falling
// back to the compiled defaults when the store has none or fails.
func (e *Engine) activeSettings(ctx context.Context) types.ScoringSettings {
	settings, _, err := e.settings.GetOrFill(ctx, "active", func(ctx context.Context) (types.ScoringSettings, error) {
		s, err := e.store.ActiveSettings(ctx)
		if err != nil {
			if err != store.ErrNoSettings {
				fmt.Fprintf(e.out, "warning: loading scoring settings: %v\n", err)
			}
			return types.DefaultScoringSettings(), nil
		}
		return s, nil
	})
	if err != nil {
		return types.DefaultScoringSettings()
	}
	return settings
}

// InvalidateCache drops all cached pipeline results and memoized settings,
// forcing the next retrieval to re-run the sources.
func (e *Engine) InvalidateCache() {
	e.pipeline.Invalidate()
	e.settings.Invalidate()
}

func (e *Engine) run(ctx context.Context, req Request, settings types.ScoringSettings) (types.RetrievalResult, error) {
	scorer := scoring.NewScorer(settings, time.Now().UTC())

	var (
		items     []types.GlobalItem
		snapshots []types.CountrySnapshot
		searches  []source.ThemeSearch
	)

	g, gctx := errgroup.WithContext(ctx)

	// Datastore branch. A failure here fails the whole retrieval.
	g.Go(func() error {
		var err error
		items, snapshots, err = e.queryDatastore(gctx, req)
		return err
	})

	// Web-search branch. Per-theme failures degrade to empty contributions.
	if e.provider != nil {
		g.Go(func() error {
			searches = source.SearchThemes(gctx, e.provider, req.Profile, req.Themes,
				req.DaysLookback, settings.ThemeRelevanceThresholdWeb, e.cfg.WebSearch, e.out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return types.RetrievalResult{}, fmt.Errorf("querying datastore: %w", err)
	}

	result := types.RetrievalResult{RunID: uuid.NewString()}

	// Score and threshold. The threshold starts permissive and tightens
	// once enough signals have been accepted.
	var accepted []types.IntelligenceSignal
	accept := func(sig types.IntelligenceSignal) {
		result.CandidatesConsidered++
		threshold := settings.RelevanceThresholdLow
		if len(accepted) >= 5 {
			threshold = settings.RelevanceThresholdHigh
		}
		if sig.FinalRelevanceScore >= threshold {
			accepted = append(accepted, sig)
		}
	}

	for _, item := range items {
		if sig, ok := scorer.ScoreGlobalItem(item, req.Profile, req.Themes, req.DaysLookback); ok {
			accept(sig)
		}
	}
	for _, snap := range snapshots {
		for _, sig := range scorer.ScoreSnapshot(snap, req.Profile, req.Themes, req.DaysLookback, settings.MaxEventsPerSnapshot) {
			accept(sig)
		}
	}
	for _, ts := range searches {
		record := types.WebSearchRecord{
			Theme:        ts.Theme.Theme,
			Query:        ts.Query,
			ResultsCount: len(ts.Results),
		}
		if ts.Err != nil {
			record.Error = ts.Err.Error()
		}
		for _, r := range ts.Results {
			sig := scorer.ScoreWebResult(r, req.Profile, ts.Theme, req.DaysLookback)
			before := len(accepted)
			accept(sig)
			record.SignalsCount += len(accepted) - before
		}
		result.WebSearches = append(result.WebSearches, record)
	}

	// Dedup keeps the higher-scored copy of each story.
	signals, removed := dedupe.Deduplicate(accepted, settings.TitleDuplicateThreshold)
	result.DuplicatesRemoved = removed

	if e.filter != nil && e.cfg.Semantic.Enabled && settings.UseSemanticFiltering {
		var filtered int
		signals, filtered = e.filter.Run(ctx, signals, req.Profile, req.Themes, settings.SemanticThreshold, e.out)
		result.SemanticFiltered = filtered
		result.SemanticFilterRan = true
	}

	sortSignals(signals)

	if e.validator != nil && e.cfg.Validation.Enabled && settings.UseBatchValidation {
		signals = e.validateBatch(ctx, signals, req.Profile, &result)
	}

	if len(signals) > req.MaxSignals {
		signals = signals[:req.MaxSignals]
	}
	result.Signals = signals
	return result, nil
}

// queryDatastore fetches items and snapshots for the profile. A country
// query that comes back empty falls back to region scope so regional funds
// still see regional intelligence.
func (e *Engine) queryDatastore(ctx context.Context, req Request) ([]types.GlobalItem, []types.CountrySnapshot, error) {
	itemFilter := store.ItemFilter{
		DaysLookback: req.DaysLookback,
		Limit:        e.cfg.Datastore.MaxGlobalItems,
	}
	if req.Profile.Country != "" {
		itemFilter.Countries = []string{req.Profile.Country}
	}

	items, err := e.store.GlobalItems(ctx, itemFilter)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 && req.Profile.Country != "" {
		itemFilter.Countries = nil
		items, err = e.store.GlobalItems(ctx, itemFilter)
		if err != nil {
			return nil, nil, err
		}
	}

	snapFilter := store.SnapshotFilter{
		DaysLookback: req.DaysLookback,
		Limit:        e.cfg.Datastore.MaxSnapshots,
	}
	if req.Profile.Country != "" {
		snapFilter.CountryName = req.Profile.Country
	} else {
		snapFilter.ActivityLevels = []string{"Critical", "High"}
	}

	snapshots, err := e.store.Snapshots(ctx, snapFilter)
	if err != nil {
		return nil, nil, err
	}
	return items, snapshots, nil
}

// validateBatch runs the batch cross-validator over the top of the ranked
// set and re-ranks with adjusted scores. Any validator error leaves the
// signals untouched.
func (e *Engine) validateBatch(ctx context.Context, signals []types.IntelligenceSignal, profile types.AssetProfile, result *types.RetrievalResult) []types.IntelligenceSignal {
	minSignals := e.cfg.Validation.MinSignals
	if minSignals <= 0 {
		minSignals = 3
	}
	if len(signals) < minSignals {
		return signals
	}

	batchSize := e.cfg.Validation.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	// Signals are ranked already, so truncation drops the lowest scored.
	batch := signals
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	verdict, err := e.validator.Validate(ctx, batch, profile)
	if err != nil {
		fmt.Fprintf(e.out, "warning: batch validation failed: %v\n", err)
		return signals
	}

	validate.Apply(batch, verdict)
	for i := len(batch); i < len(signals); i++ {
		signals[i].ConfidenceMultiplier = 1.0
	}
	result.BatchValidationRan = true

	sortSignals(signals)
	return signals
}

// sortSignals ranks by final score descending; ties go to the more recent
// publication, then title for determinism.
func sortSignals(signals []types.IntelligenceSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].FinalRelevanceScore != signals[j].FinalRelevanceScore {
			return signals[i].FinalRelevanceScore > signals[j].FinalRelevanceScore
		}
		if !signals[i].PublishedAt.Equal(signals[j].PublishedAt) {
			return signals[i].PublishedAt.After(signals[j].PublishedAt)
		}
		return signals[i].Title < signals[j].Title
	})
}

// pipelineKey addresses one retrieval call by everything that affects its
// outcome, including the hot-reloadable stage flags and thresholds, so a
// settings change never serves a result computed under the old values.
func pipelineKey(req Request, settings types.ScoringSettings) string {
	themeParts := make([]string, 0, len(req.Themes))
	for _, t := range req.Themes {
		themeParts = append(themeParts, fmt.Sprintf("%s:%.3f", t.Theme, t.RelevanceScore))
	}
	sort.Strings(themeParts)
	return cache.Key(
		"pipeline",
		req.Profile.ID,
		req.Profile.Country,
		req.Profile.Region,
		req.Profile.Sector,
		strings.Join(themeParts, ","),
		fmt.Sprintf("%d", req.DaysLookback),
		fmt.Sprintf("%d", req.MaxSignals),
		fmt.Sprintf("%t", settings.UseSemanticFiltering),
		fmt.Sprintf("%t", settings.UseBatchValidation),
		fmt.Sprintf("%.3f", settings.SemanticThreshold),
		fmt.Sprintf("%.3f", settings.RelevanceThresholdLow),
		fmt.Sprintf("%.3f", settings.RelevanceThresholdHigh),
	)
}
