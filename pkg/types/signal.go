// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the signal engine pipeline.
package types

import "time"

// Origin identifies which adapter produced a candidate signal.
type Origin string

const (
	OriginGlobalItem      Origin = "global_item"
	OriginCountrySnapshot Origin = "country_snapshot"
	OriginWebSearch       Origin = "web_search"
)

// EvidenceQuality is the cross-validator's coarse judgment of how well a
// signal is sourced.
type EvidenceQuality string

const (
	EvidenceHigh   EvidenceQuality = "high"
	EvidenceMedium EvidenceQuality = "medium"
	EvidenceLow    EvidenceQuality = "low"
)

// AssetProfile describes one financial holding for intelligence retrieval.
// It is produced by the asset-characterization collaborator and treated as
// immutable for the duration of a retrieval call.
type AssetProfile struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Ticker string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	ISIN   string `json:"isin,omitempty" yaml:"isin,omitempty"`

	// Geographic exposure. Country may be empty for global funds.
	Country   string `json:"country,omitempty" yaml:"country,omitempty"`
	Region    string `json:"region" yaml:"region"`
	SubRegion string `json:"sub_region,omitempty" yaml:"sub_region,omitempty"`

	// Classification.
	AssetType  string `json:"asset_type" yaml:"asset_type"`
	AssetClass string `json:"asset_class" yaml:"asset_class"`
	Sector     string `json:"sector" yaml:"sector"`

	// Market flags.
	IsEmergingMarket  bool `json:"is_emerging_market" yaml:"is_emerging_market"`
	IsDevelopedMarket bool `json:"is_developed_market" yaml:"is_developed_market"`
	IsGlobalFund      bool `json:"is_global_fund" yaml:"is_global_fund"`

	// Exposure tags (e.g. "energy", "government", "technology").
	ExposureTags []string `json:"exposure_tags,omitempty" yaml:"exposure_tags,omitempty"`
}

// ThemeRelevance pairs a geopolitical risk theme with its relevance to one
// asset. Produced by the theme-identification collaborator.
type ThemeRelevance struct {
	Theme           string   `json:"theme" yaml:"theme"`
	RelevanceScore  float64  `json:"relevance_score" yaml:"relevance_score"`
	Reasoning       string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	KeywordsMatched []string `json:"keywords_matched,omitempty" yaml:"keywords_matched,omitempty"`
}

// RawCandidate is the common shape source adapters emit before scoring. It
// has no identity beyond structural equality and lives for a single
// pipeline execution.
type RawCandidate struct {
	Origin      Origin
	Title       string
	Summary     string
	Topic       string
	SourceName  string
	URL         string
	PublishedAt time.Time

	// Country and ActivityLevel are set when the origin knows them
	// (datastore candidates); web-search candidates leave ActivityLevel
	// empty.
	Country       string
	ActivityLevel string

	// ThemeHint names the theme that produced this candidate, when the
	// origin queried per theme (web search).
	ThemeHint string
}

// IntelligenceSignal is a scored, deduplicated candidate handed to the
// caller. The five factor scores and FinalRelevanceScore are always set;
// semantic and validation fields are populated only when those stages ran.
type IntelligenceSignal struct {
	Origin      Origin    `json:"origin" yaml:"origin"`
	Title       string    `json:"title" yaml:"title"`
	Summary     string    `json:"summary" yaml:"summary"`
	Topic       string    `json:"topic" yaml:"topic"`
	SourceName  string    `json:"source_name" yaml:"source_name"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	Country       string `json:"country,omitempty" yaml:"country,omitempty"`
	ActivityLevel string `json:"activity_level,omitempty" yaml:"activity_level,omitempty"`
	ThemeMatch    string `json:"theme_match,omitempty" yaml:"theme_match,omitempty"`

	// Scoring breakdown, each factor in [0,1].
	BaseRelevance      float64 `json:"base_relevance" yaml:"base_relevance"`
	ThemeMatchScore    float64 `json:"theme_match_score" yaml:"theme_match_score"`
	RecencyScore       float64 `json:"recency_score" yaml:"recency_score"`
	SourceQualityScore float64 `json:"source_quality_score" yaml:"source_quality_score"`
	ActivityLevelScore float64 `json:"activity_level_score" yaml:"activity_level_score"`

	// FinalRelevanceScore is the weighted combination of the five factors.
	// Batch validation may later adjust it multiplicatively; the adjusted
	// value stays clamped to [0,1].
	FinalRelevanceScore float64 `json:"final_relevance_score" yaml:"final_relevance_score"`

	// Semantic filter output. Zero values mean the filter did not run for
	// this signal.
	SemanticRelevance  float64 `json:"semantic_relevance,omitempty" yaml:"semantic_relevance,omitempty"`
	SemanticConfidence float64 `json:"semantic_confidence,omitempty" yaml:"semantic_confidence,omitempty"`
	SemanticReasoning  string  `json:"semantic_reasoning,omitempty" yaml:"semantic_reasoning,omitempty"`

	// Batch cross-validation output. ConfidenceMultiplier is 1.0 when
	// validation did not run.
	ValidationConfidence float64         `json:"validation_confidence,omitempty" yaml:"validation_confidence,omitempty"`
	IsCorroborated       bool            `json:"is_corroborated,omitempty" yaml:"is_corroborated,omitempty"`
	IsContradicted       bool            `json:"is_contradicted,omitempty" yaml:"is_contradicted,omitempty"`
	CorroborationCount   int             `json:"corroboration_count,omitempty" yaml:"corroboration_count,omitempty"`
	EvidenceQuality      EvidenceQuality `json:"evidence_quality,omitempty" yaml:"evidence_quality,omitempty"`
	ValidationReasoning  string          `json:"validation_reasoning,omitempty" yaml:"validation_reasoning,omitempty"`
	ConfidenceMultiplier float64         `json:"confidence_multiplier,omitempty" yaml:"confidence_multiplier,omitempty"`
}

// WebSearchRecord tracks one per-theme web-search attempt for the caller's
// degradation reporting.
type WebSearchRecord struct {
	Theme        string `json:"theme" yaml:"theme"`
	Query        string `json:"query" yaml:"query"`
	ResultsCount int    `json:"results_count" yaml:"results_count"`
	SignalsCount int    `json:"signals_count" yaml:"signals_count"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RetrievalResult is the engine's output: the ranked signal set plus
// per-call metadata so callers can distinguish an empty result from a
// degraded one.
type RetrievalResult struct {
	RunID   string               `json:"run_id" yaml:"run_id"`
	Signals []IntelligenceSignal `json:"signals" yaml:"signals"`

	WebSearches []WebSearchRecord `json:"web_searches" yaml:"web_searches"`

	CandidatesConsidered int `json:"candidates_considered" yaml:"candidates_considered"`
	DuplicatesRemoved    int `json:"duplicates_removed" yaml:"duplicates_removed"`
	SemanticFiltered     int `json:"semantic_filtered" yaml:"semantic_filtered"`

	// Stage flags: true when the optional stage actually ran.
	SemanticFilterRan  bool `json:"semantic_filter_ran" yaml:"semantic_filter_ran"`
	BatchValidationRan bool `json:"batch_validation_ran" yaml:"batch_validation_ran"`

	// FromCache is true when the result was served from the pipeline cache.
	FromCache bool `json:"from_cache" yaml:"from_cache"`
}
