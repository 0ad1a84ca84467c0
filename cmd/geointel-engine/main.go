// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the geointel-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/geointel-engine/internal/secrets"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for
// key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the geointel-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "geointel-engine",
	Short: "Geopolitical risk signal retrieval and scoring",
	Long: `geointel-engine retrieves geopolitical intelligence signals for financial
assets. Candidates come from a local event datastore and themed web
searches; each is scored deterministically, deduplicated, optionally
filtered and cross-validated by an AI classifier, and ranked.

Use retrieve for a full pipeline run, store to manage the datastore, and
settings to inspect or change scoring parameters.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./geointel-engine.yaml or ~/.config/geointel-engine/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite datastore path (default: geointel.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("geointel-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "geointel-engine"))
		}
	}

	viper.SetDefault("semantic.enabled", true)
	viper.SetDefault("validation.enabled", true)

	viper.SetEnvPrefix("GEOINTEL_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the full stage configuration from viper, flags,
// and loaded secrets.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("datastore.path")
	}

	cfg := types.EngineConfig{
		Datastore: types.DatastoreConfig{
			Path:           dbPath,
			MaxGlobalItems: viper.GetInt("datastore.max_global_items"),
			MaxSnapshots:   viper.GetInt("datastore.max_snapshots"),
			QueryTimeout:   viper.GetDuration("datastore.query_timeout"),
		},
		WebSearch: types.WebSearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("web_search.timeout"),
				UserAgent: viper.GetString("web_search.user_agent"),
			},
			Provider:           viper.GetString("web_search.provider"),
			TavilyAPIKey:       secretDefault("tavily-api-key", viper.GetString("web_search.tavily_api_key")),
			SerperAPIKey:       secretDefault("serper-api-key", viper.GetString("web_search.serper_api_key")),
			MaxResultsPerTheme: viper.GetInt("web_search.max_results_per_theme"),
			MaxThemes:          viper.GetInt("web_search.max_themes"),
			QueriesPerSecond:   viper.GetFloat64("web_search.queries_per_second"),
		},
		Semantic: types.SemanticConfig{
			AIConfig: types.AIConfig{
				Model:   viper.GetString("semantic.model"),
				APIKey:  secretDefault("openai-api-key", viper.GetString("semantic.api_key")),
				BaseURL: viper.GetString("semantic.base_url"),
				Timeout: viper.GetDuration("semantic.timeout"),
			},
			Enabled:     viper.GetBool("semantic.enabled"),
			Threshold:   viper.GetFloat64("semantic.threshold"),
			Concurrency: viper.GetInt("semantic.concurrency"),
		},
		Validation: types.ValidationConfig{
			AIConfig: types.AIConfig{
				Model:   viper.GetString("validation.model"),
				APIKey:  secretDefault("openai-api-key", viper.GetString("validation.api_key")),
				BaseURL: viper.GetString("validation.base_url"),
				Timeout: viper.GetDuration("validation.timeout"),
			},
			Enabled:      viper.GetBool("validation.enabled"),
			MaxBatchSize: viper.GetInt("validation.max_batch_size"),
			MinSignals:   viper.GetInt("validation.min_signals"),
		},
		Cache: types.CacheConfig{
			PipelineTTL: viper.GetDuration("cache.pipeline_ttl"),
			SemanticTTL: viper.GetDuration("cache.semantic_ttl"),
		},
	}

	if cfg.Cache.PipelineTTL <= 0 {
		cfg.Cache.PipelineTTL = 10 * time.Minute
	}
	if cfg.Cache.SemanticTTL <= 0 {
		cfg.Cache.SemanticTTL = 60 * time.Minute
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
