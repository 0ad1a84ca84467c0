// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "geointel-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DatastoreConfig holds settings for the SQLite event datastore.
type DatastoreConfig struct {
	// Path is the SQLite database file (default "geointel.db").
	Path string `json:"path" yaml:"path"`

	// MaxGlobalItems caps rows returned by a global-items query (default 200).
	MaxGlobalItems int `json:"max_global_items" yaml:"max_global_items"`

	// MaxSnapshots caps rows returned by a snapshot query (default 50).
	MaxSnapshots int `json:"max_snapshots" yaml:"max_snapshots"`

	// QueryTimeout bounds each datastore query (default 10s).
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
}

// WebSearchConfig holds settings for the web-search source adapter.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the search backend: "tavily" or "serper".
	Provider string `json:"provider" yaml:"provider"`

	// TavilyAPIKey authenticates against the Tavily API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// SerperAPIKey authenticates against the Serper API.
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty"`

	// MaxResultsPerTheme caps results per theme query (default 5).
	MaxResultsPerTheme int `json:"max_results_per_theme" yaml:"max_results_per_theme"`

	// MaxThemes is how many top themes get their own search (default 3).
	MaxThemes int `json:"max_themes" yaml:"max_themes"`

	// QueriesPerSecond rate-limits calls to the provider (default 2).
	QueriesPerSecond float64 `json:"queries_per_second" yaml:"queries_per_second"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds each API call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SemanticConfig holds settings for the per-signal semantic filter.
type SemanticConfig struct {
	AIConfig `yaml:",inline"`

	// Enabled controls whether semantic filtering runs at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Threshold is the minimum semantic relevance to keep a signal (default 0.6).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Concurrency bounds parallel classifier calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ValidationConfig holds settings for the batch cross-validator.
type ValidationConfig struct {
	AIConfig `yaml:",inline"`

	// Enabled controls whether batch validation runs at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxBatchSize caps signals sent in one validation call (default 50).
	// Overflow is truncated lowest-score first.
	MaxBatchSize int `json:"max_batch_size" yaml:"max_batch_size"`

	// MinSignals is the smallest surviving set worth validating (default 3).
	MinSignals int `json:"min_signals" yaml:"min_signals"`
}

// CacheConfig holds TTLs for the two memoization domains.
type CacheConfig struct {
	// PipelineTTL bounds pipeline-result entries (default 10m).
	PipelineTTL time.Duration `json:"pipeline_ttl" yaml:"pipeline_ttl"`

	// SemanticTTL bounds semantic-classifier response entries (default 60m).
	SemanticTTL time.Duration `json:"semantic_ttl" yaml:"semantic_ttl"`
}

// EngineConfig groups all stage configurations for the retrieval pipeline.
type EngineConfig struct {
	Datastore  DatastoreConfig  `json:"datastore" yaml:"datastore"`
	WebSearch  WebSearchConfig  `json:"web_search" yaml:"web_search"`
	Semantic   SemanticConfig   `json:"semantic" yaml:"semantic"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
}

// ScoringSettings holds every parameter that affects deterministic scoring.
// Settings live in the datastore (named rows, one active) and fall back to
// DefaultScoringSettings when the store has none.
type ScoringSettings struct {
	Name string `json:"name" yaml:"name"`

	// Factor weights. By convention they sum to 1.0 but are not required to.
	WeightBaseRelevance float64 `json:"weight_base_relevance" yaml:"weight_base_relevance"`
	WeightThemeMatch    float64 `json:"weight_theme_match" yaml:"weight_theme_match"`
	WeightRecency       float64 `json:"weight_recency" yaml:"weight_recency"`
	WeightSourceQuality float64 `json:"weight_source_quality" yaml:"weight_source_quality"`
	WeightActivityLevel float64 `json:"weight_activity_level" yaml:"weight_activity_level"`

	// RecencyDecayConstant is the e-folding time in days for recency decay.
	RecencyDecayConstant float64 `json:"recency_decay_constant" yaml:"recency_decay_constant"`

	// Base-relevance tier scores.
	ScoreCountryExactMatch   float64 `json:"score_country_exact_match" yaml:"score_country_exact_match"`
	ScoreCountryPartialMatch float64 `json:"score_country_partial_match" yaml:"score_country_partial_match"`
	ScoreRegionMatch         float64 `json:"score_region_match" yaml:"score_region_match"`
	ScoreSectorMatch         float64 `json:"score_sector_match" yaml:"score_sector_match"`

	// Quality tables. Each has a "default" key used for unknown entries.
	SourceQualityScores map[string]float64 `json:"source_quality_scores" yaml:"source_quality_scores"`
	ActivityLevelScores map[string]float64 `json:"activity_level_scores" yaml:"activity_level_scores"`

	// Thresholds.
	SemanticThreshold          float64 `json:"semantic_threshold" yaml:"semantic_threshold"`
	RelevanceThresholdLow      float64 `json:"relevance_threshold_low" yaml:"relevance_threshold_low"`
	RelevanceThresholdHigh     float64 `json:"relevance_threshold_high" yaml:"relevance_threshold_high"`
	ThemeRelevanceThresholdWeb float64 `json:"theme_relevance_threshold_web" yaml:"theme_relevance_threshold_web"`

	// TitleDuplicateThreshold is the word-overlap ratio at which two titles
	// are considered the same story (default 0.7).
	TitleDuplicateThreshold float64 `json:"title_duplicate_threshold" yaml:"title_duplicate_threshold"`

	// Defaults applied when the caller leaves retrieval options unset.
	DaysLookbackDefault  int  `json:"days_lookback_default" yaml:"days_lookback_default"`
	MaxSignalsDefault    int  `json:"max_signals_default" yaml:"max_signals_default"`
	MaxEventsPerSnapshot int  `json:"max_events_per_snapshot" yaml:"max_events_per_snapshot"`
	UseSemanticFiltering bool `json:"use_semantic_filtering" yaml:"use_semantic_filtering"`
	UseBatchValidation   bool `json:"use_batch_validation" yaml:"use_batch_validation"`
}

// DefaultScoringSettings returns the compiled-in settings used when the
// datastore has no active settings row.
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		Name:                 "default",
		WeightBaseRelevance:  0.3,
		WeightThemeMatch:     0.25,
		WeightRecency:        0.2,
		WeightSourceQuality:  0.15,
		WeightActivityLevel:  0.1,
		RecencyDecayConstant: 30.0,

		ScoreCountryExactMatch:   0.5,
		ScoreCountryPartialMatch: 0.3,
		ScoreRegionMatch:         0.2,
		ScoreSectorMatch:         0.2,

		SourceQualityScores: map[string]float64{
			"Reuters":                 1.0,
			"BBC":                     1.0,
			"Financial Times":         0.95,
			"The New York Times":      0.95,
			"The Wall Street Journal": 0.95,
			"Associated Press":        0.95,
			"The Guardian":            0.9,
			"Bloomberg":               0.9,
			"The Economist":           0.9,
			"Al Jazeera":              0.85,
			"CNN":                     0.85,
			"Foreign Policy":          0.85,
			"Foreign Affairs":         0.85,
			"The Diplomat":            0.8,
			"default":                 0.7,
		},
		ActivityLevelScores: map[string]float64{
			"Critical": 1.0,
			"High":     0.8,
			"Medium":   0.5,
			"Low":      0.2,
			"default":  0.3,
		},

		SemanticThreshold:          0.6,
		RelevanceThresholdLow:      0.05,
		RelevanceThresholdHigh:     0.1,
		ThemeRelevanceThresholdWeb: 0.3,
		TitleDuplicateThreshold:    0.7,

		DaysLookbackDefault:  90,
		MaxSignalsDefault:    20,
		MaxEventsPerSnapshot: 3,
		UseSemanticFiltering: true,
		UseBatchValidation:   true,
	}
}
