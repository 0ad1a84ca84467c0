// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// OpenAIValidator implements Validator against any OpenAI-compatible chat
// API. The whole batch goes in one request.
type OpenAIValidator struct {
	client *openai.Client
	model  string
}

// NewOpenAIValidator builds a validator from AI settings. Each API call is
// bounded by cfg.Timeout (default 30s) independently of the caller's
// context.
func NewOpenAIValidator(cfg types.AIConfig) *OpenAIValidator {
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
	return &OpenAIValidator{client: openai.NewClientWithConfig(clientCfg), model: model}
}

const validateSystemPrompt = `You are a geopolitical intelligence validator. You receive a numbered list of signals about one financial asset. Cross-check them against each other: signals confirming the same development corroborate; signals asserting incompatible facts contradict. Respond with JSON only:
{"validations": [{"index": 0, "confidence": 0.0-1.0, "is_corroborated": bool, "is_contradicted": bool, "corroboration_count": int, "evidence_quality": "high"|"medium"|"low", "reasoning": "one sentence"}, ...], "overall_coherence": 0.0-1.0, "corroborated_count": int, "contradicted_count": int}
Include one validation entry per signal, using the signal's number as index.`

// Validate submits the batch and parses the per-signal verdicts.
func (v *OpenAIValidator) Validate(ctx context.Context, signals []types.IntelligenceSignal, profile types.AssetProfile) (BatchVerdict, error) {
	if len(signals) == 0 {
		return BatchVerdict{}, fmt.Errorf("empty validation batch")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Asset: %s (%s", profile.Name, profile.Sector)
	if profile.Country != "" {
		fmt.Fprintf(&sb, ", %s", profile.Country)
	}
	sb.WriteString(")\n\nSignals:\n")
	for i, sig := range signals {
		fmt.Fprintf(&sb, "%d. [%s | %s | score %.2f] %s\n   %s\n",
			i, sig.SourceName, sig.PublishedAt.Format("2006-01-02"), sig.FinalRelevanceScore,
			sig.Title, truncate(sig.Summary, 200))
	}

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       v.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: validateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return BatchVerdict{}, fmt.Errorf("validation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return BatchVerdict{}, fmt.Errorf("validator returned no choices")
	}

	return parseVerdict(resp.Choices[0].Message.Content, len(signals))
}

// Validation response JSON structures. Confidence is a pointer so an
// entry that omits the field is distinguishable from a reported zero.
type signalVerdictWire struct {
	Index              int                   `json:"index"`
	Confidence         *float64              `json:"confidence"`
	IsCorroborated     bool                  `json:"is_corroborated"`
	IsContradicted     bool                  `json:"is_contradicted"`
	CorroborationCount int                   `json:"corroboration_count"`
	EvidenceQuality    types.EvidenceQuality `json:"evidence_quality"`
	Reasoning          string                `json:"reasoning"`
}

type batchVerdictWire struct {
	Verdicts          []signalVerdictWire `json:"validations"`
	OverallCoherence  float64             `json:"overall_coherence"`
	CorroboratedCount int                 `json:"corroborated_count"`
	ContradictedCount int                 `json:"contradicted_count"`
}

// parseVerdict decodes the model's JSON, repairing malformed output before
// giving up. Entries with out-of-range indices or confidences are dropped;
// an absent confidence field means full confidence.
func parseVerdict(content string, batchSize int) (BatchVerdict, error) {
	raw := extractJSON(content)

	var wire batchVerdictWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return BatchVerdict{}, fmt.Errorf("parsing validation response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return BatchVerdict{}, fmt.Errorf("parsing repaired validation response: %w", err)
		}
	}

	if len(wire.Verdicts) == 0 {
		return BatchVerdict{}, fmt.Errorf("validation response had no entries")
	}

	verdict := BatchVerdict{
		OverallCoherence:  wire.OverallCoherence,
		CorroboratedCount: wire.CorroboratedCount,
		ContradictedCount: wire.ContradictedCount,
	}
	for _, wv := range wire.Verdicts {
		if wv.Index < 0 || wv.Index >= batchSize {
			continue
		}
		confidence := 1.0
		if wv.Confidence != nil {
			if *wv.Confidence < 0 || *wv.Confidence > 1 {
				continue
			}
			confidence = *wv.Confidence
		}
		quality := wv.EvidenceQuality
		switch quality {
		case types.EvidenceHigh, types.EvidenceMedium, types.EvidenceLow, "":
		default:
			quality = types.EvidenceMedium
		}
		verdict.Verdicts = append(verdict.Verdicts, SignalVerdict{
			Index:              wv.Index,
			Confidence:         confidence,
			IsCorroborated:     wv.IsCorroborated,
			IsContradicted:     wv.IsContradicted,
			CorroborationCount: wv.CorroborationCount,
			EvidenceQuality:    quality,
			Reasoning:          wv.Reasoning,
		})
	}
	return verdict, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
