// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semantic filters scored signals through an AI classifier that
// judges whether each one genuinely concerns the asset under analysis.
// The stage fails open: a classifier error keeps the signal.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// Assessment is the classifier's judgment of one signal.
type Assessment struct {
	IsRelevant bool    `json:"is_relevant"`
	Relevance  float64 `json:"relevance_score"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier judges one signal against one asset profile.
type Classifier interface {
	Assess(ctx context.Context, signal types.IntelligenceSignal, profile types.AssetProfile, themes []types.ThemeRelevance) (Assessment, error)
}

// OpenAIClassifier implements Classifier against any OpenAI-compatible
// chat API.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier from AI settings. BaseURL, when
// set, points at an OpenAI-compatible service. Each API call is bounded by
// cfg.Timeout (default 30s) independently of the caller's context.
func NewOpenAIClassifier(cfg types.AIConfig) *OpenAIClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{client: openai.NewClientWithConfig(clientCfg), model: model}
}

const assessSystemPrompt = `You are a geopolitical risk analyst. Judge whether a news signal is genuinely relevant to a specific financial asset. Respond with JSON only:
{"is_relevant": bool, "relevance_score": 0.0-1.0, "confidence": 0.0-1.0, "reasoning": "one sentence"}`

// Assess sends one signal to the chat API and parses the JSON verdict.
func (c *OpenAIClassifier) Assess(ctx context.Context, signal types.IntelligenceSignal, profile types.AssetProfile, themes []types.ThemeRelevance) (Assessment, error) {
	themeNames := make([]string, 0, len(themes))
	for _, t := range themes {
		themeNames = append(themeNames, t.Theme)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Asset: %s (%s, sector %s", profile.Name, profile.AssetClass, profile.Sector)
	if profile.Country != "" {
		fmt.Fprintf(&sb, ", country %s", profile.Country)
	} else if profile.Region != "" {
		fmt.Fprintf(&sb, ", region %s", profile.Region)
	}
	sb.WriteString(")\n")
	fmt.Fprintf(&sb, "Risk themes: %s\n\n", strings.Join(themeNames, ", "))
	fmt.Fprintf(&sb, "Signal title: %s\n", signal.Title)
	fmt.Fprintf(&sb, "Signal summary: %s\n", signal.Summary)
	if signal.Country != "" {
		fmt.Fprintf(&sb, "Signal country: %s\n", signal.Country)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: assessSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("classifier request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Assessment{}, fmt.Errorf("classifier returned no choices")
	}

	return parseAssessment(resp.Choices[0].Message.Content)
}

// parseAssessment decodes the model's JSON, repairing malformed output
// before giving up.
func parseAssessment(content string) (Assessment, error) {
	var a Assessment
	raw := extractJSON(content)
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return Assessment{}, fmt.Errorf("parsing assessment: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &a); err != nil {
			return Assessment{}, fmt.Errorf("parsing repaired assessment: %w", err)
		}
	}
	if a.Relevance < 0 || a.Relevance > 1 {
		return Assessment{}, fmt.Errorf("assessment relevance %v out of range", a.Relevance)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return Assessment{}, fmt.Errorf("assessment confidence %v out of range", a.Confidence)
	}
	return a, nil
}

// extractJSON trims any prose around the first JSON object in the reply.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// BreakerClassifier wraps a Classifier with a circuit breaker so a
// misbehaving AI endpoint stops receiving traffic instead of slowing
// every retrieval.
type BreakerClassifier struct {
	inner Classifier
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerClassifier wraps inner with a breaker that trips after a 60%
// failure ratio over at least 3 requests and probes again after 30s.
func NewBreakerClassifier(inner Classifier) *BreakerClassifier {
	st := gobreaker.Settings{
		Name:    "semantic-classifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
	return &BreakerClassifier{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

// Assess implements Classifier.
func (b *BreakerClassifier) Assess(ctx context.Context, signal types.IntelligenceSignal, profile types.AssetProfile, themes []types.ThemeRelevance) (Assessment, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Assess(ctx, signal, profile, themes)
	})
	if err != nil {
		return Assessment{}, err
	}
	return resp.(Assessment), nil
}
