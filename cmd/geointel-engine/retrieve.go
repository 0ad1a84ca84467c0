// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/geointel-engine/internal/cache"
	"github.com/pdiddy/geointel-engine/internal/engine"
	"github.com/pdiddy/geointel-engine/internal/semantic"
	"github.com/pdiddy/geointel-engine/internal/source"
	"github.com/pdiddy/geointel-engine/internal/store"
	"github.com/pdiddy/geointel-engine/internal/validate"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Run the signal retrieval pipeline for one asset",
	Long: `Retrieve queries the event datastore and themed web searches for one
asset profile, scores and deduplicates the candidates, optionally runs the
AI semantic filter and batch cross-validation, and prints the ranked
signals.

The asset profile and risk themes come from a YAML file (--profile) or
from flags. Themes are given as name:score pairs, e.g.
--theme military_conflict:0.9 --theme sanctions:0.6.`,
	RunE: runRetrieve,
}

// profileFile is the YAML shape accepted by --profile.
type profileFile struct {
	Profile types.AssetProfile     `yaml:"profile"`
	Themes  []types.ThemeRelevance `yaml:"themes"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	if req.Profile.Name == "" {
		return fmt.Errorf("asset profile required: provide --profile or --name with --country/--region")
	}

	cfg := engineConfig(cmd)

	st, err := store.NewStore(cfg.Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := buildEngine(cmd, st, cfg)
	if err != nil {
		return err
	}

	timeout := 5 * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := eng.Retrieve(ctx, req)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrievalResult(result, jsonOutput)
}

// buildEngine wires the pipeline stages from configuration and flags.
func buildEngine(cmd *cobra.Command, st *store.Store, cfg types.EngineConfig) (*engine.Engine, error) {
	webTimeout := cfg.WebSearch.Timeout
	if webTimeout <= 0 {
		webTimeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: webTimeout}

	var provider source.Provider
	noWeb, _ := cmd.Flags().GetBool("no-web")
	if !noWeb && (cfg.WebSearch.TavilyAPIKey != "" || cfg.WebSearch.SerperAPIKey != "") {
		p, err := source.NewProvider(cfg.WebSearch, httpClient)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	var filter *semantic.Filter
	noSemantic, _ := cmd.Flags().GetBool("no-semantic")
	if !noSemantic && cfg.Semantic.Enabled && cfg.Semantic.APIKey != "" {
		classifier := semantic.NewBreakerClassifier(semantic.NewOpenAIClassifier(cfg.Semantic.AIConfig))
		assessments := cache.New[semantic.Assessment](cfg.Cache.SemanticTTL)
		filter = semantic.NewFilter(classifier, assessments, cfg.Semantic)
	}

	var validator validate.Validator
	noValidate, _ := cmd.Flags().GetBool("no-validate")
	if !noValidate && cfg.Validation.Enabled && cfg.Validation.APIKey != "" {
		validator = validate.NewOpenAIValidator(cfg.Validation.AIConfig)
	}

	pipeline := cache.New[types.RetrievalResult](cfg.Cache.PipelineTTL)
	return engine.New(st, provider, filter, validator, pipeline, cfg, os.Stderr), nil
}

// requestFromFlags builds the retrieval request from --profile or the
// individual profile flags. Flags override file values.
func requestFromFlags(cmd *cobra.Command) (engine.Request, error) {
	var req engine.Request

	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("reading profile %s: %w", path, err)
		}
		var pf profileFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return req, fmt.Errorf("parsing profile %s: %w", path, err)
		}
		req.Profile = pf.Profile
		req.Themes = pf.Themes
	}

	if name, _ := cmd.Flags().GetString("name"); name != "" {
		req.Profile.Name = name
	}
	if country, _ := cmd.Flags().GetString("country"); country != "" {
		req.Profile.Country = country
	}
	if region, _ := cmd.Flags().GetString("region"); region != "" {
		req.Profile.Region = region
	}
	if sector, _ := cmd.Flags().GetString("sector"); sector != "" {
		req.Profile.Sector = sector
	}
	if assetClass, _ := cmd.Flags().GetString("asset-class"); assetClass != "" {
		req.Profile.AssetClass = assetClass
	}

	themeFlags, _ := cmd.Flags().GetStringArray("theme")
	for _, tf := range themeFlags {
		theme, err := parseThemeFlag(tf)
		if err != nil {
			return req, err
		}
		req.Themes = append(req.Themes, theme)
	}

	req.DaysLookback, _ = cmd.Flags().GetInt("days")
	req.MaxSignals, _ = cmd.Flags().GetInt("max-signals")
	return req, nil
}

// parseThemeFlag parses "name:score" into a ThemeRelevance. A bare name
// gets relevance 0.5.
func parseThemeFlag(s string) (types.ThemeRelevance, error) {
	name, scoreStr, found := strings.Cut(s, ":")
	if name == "" {
		return types.ThemeRelevance{}, fmt.Errorf("invalid theme %q: expected name or name:score", s)
	}
	score := 0.5
	if found {
		v, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil || v < 0 || v > 1 {
			return types.ThemeRelevance{}, fmt.Errorf("invalid theme score in %q: expected 0.0-1.0", s)
		}
		score = v
	}
	return types.ThemeRelevance{Theme: name, RelevanceScore: score}, nil
}

func formatRetrievalResult(result types.RetrievalResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Signals) == 0 {
		fmt.Println("No signals found.")
	} else {
		fmt.Fprintf(os.Stdout, "%-4s  %-6s  %-52s  %-18s  %-10s  %s\n",
			"Rank", "Score", "Title", "Source", "Date", "Origin")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 105))

		for i, sig := range result.Signals {
			title := sig.Title
			if len(title) > 52 {
				title = title[:49] + "..."
			}
			src := sig.SourceName
			if len(src) > 18 {
				src = src[:15] + "..."
			}
			date := ""
			if !sig.PublishedAt.IsZero() {
				date = sig.PublishedAt.Format("2006-01-02")
			}
			fmt.Fprintf(os.Stdout, "%-4d  %.3f  %-52s  %-18s  %-10s  %s\n",
				i+1, sig.FinalRelevanceScore, title, src, date, sig.Origin)
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d signals (%d candidates, %d duplicates removed",
		len(result.Signals), result.CandidatesConsidered, result.DuplicatesRemoved)
	if result.SemanticFilterRan {
		fmt.Fprintf(os.Stdout, ", %d semantically filtered", result.SemanticFiltered)
	}
	if result.BatchValidationRan {
		fmt.Fprint(os.Stdout, ", cross-validated")
	}
	if result.FromCache {
		fmt.Fprint(os.Stdout, ", cached")
	}
	fmt.Fprintln(os.Stdout, ")")

	for _, ws := range result.WebSearches {
		if ws.Error != "" {
			fmt.Fprintf(os.Stderr, "web search degraded for theme %s: %s\n", ws.Theme, ws.Error)
		}
	}
	return nil
}

func init() {
	retrieveCmd.Flags().String("profile", "", "YAML file with asset profile and themes")
	retrieveCmd.Flags().String("name", "", "asset name")
	retrieveCmd.Flags().String("country", "", "asset country exposure")
	retrieveCmd.Flags().String("region", "", "asset region exposure")
	retrieveCmd.Flags().String("sector", "", "asset sector")
	retrieveCmd.Flags().String("asset-class", "", "asset class: equity, fixed_income, commodity, currency")
	retrieveCmd.Flags().StringArray("theme", nil, "risk theme as name:score (repeatable)")
	retrieveCmd.Flags().Int("days", 0, "lookback window in days (0 = settings default)")
	retrieveCmd.Flags().Int("max-signals", 0, "maximum signals returned (0 = settings default)")
	retrieveCmd.Flags().Bool("no-web", false, "skip web search sources")
	retrieveCmd.Flags().Bool("no-semantic", false, "skip the AI semantic filter")
	retrieveCmd.Flags().Bool("no-validate", false, "skip batch cross-validation")
	retrieveCmd.Flags().Bool("json", false, "output the full result as JSON")

	rootCmd.AddCommand(retrieveCmd)
}
