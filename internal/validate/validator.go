// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate cross-checks the surviving signal set in a single AI
// call, looking for corroboration and contradiction between signals, and
// adjusts relevance scores by the resulting confidence multipliers. The
// stage fails open: on any validator error scores are left untouched.
package validate

import (
	"context"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// SignalVerdict is the validator's judgment of one signal, addressed by
// its index in the submitted batch. Confidence is always in [0,1];
// parseVerdict fills 1.0 when the validator omits the field.
type SignalVerdict struct {
	Index              int
	Confidence         float64
	IsCorroborated     bool
	IsContradicted     bool
	CorroborationCount int
	EvidenceQuality    types.EvidenceQuality
	Reasoning          string
}

// BatchVerdict is the whole-batch validation outcome.
type BatchVerdict struct {
	Verdicts          []SignalVerdict
	OverallCoherence  float64
	CorroboratedCount int
	ContradictedCount int
}

// Validator judges a batch of signals in one call.
type Validator interface {
	Validate(ctx context.Context, signals []types.IntelligenceSignal, profile types.AssetProfile) (BatchVerdict, error)
}

// Multiplier converts one verdict into a confidence multiplier. The
// corroboration boost and contradiction penalty apply independently, so a
// signal flagged both ways gets 1.3 * 0.5. Evidence quality and the
// validator's reported confidence scale the result.
func Multiplier(v SignalVerdict) float64 {
	m := 1.0
	if v.IsCorroborated {
		m *= 1.3
	}
	if v.IsContradicted {
		m *= 0.5
	}

	switch v.EvidenceQuality {
	case types.EvidenceHigh:
		m *= 1.2
	case types.EvidenceLow:
		m *= 0.7
	}

	return m * v.Confidence
}

// Apply folds a batch verdict into the signals in place. Each validated
// signal's final score is multiplied and clamped to [0,1]; signals the
// verdict does not cover keep multiplier 1.0.
func Apply(signals []types.IntelligenceSignal, verdict BatchVerdict) {
	for i := range signals {
		signals[i].ConfidenceMultiplier = 1.0
	}
	for _, v := range verdict.Verdicts {
		if v.Index < 0 || v.Index >= len(signals) {
			continue
		}
		sig := &signals[v.Index]
		m := Multiplier(v)

		sig.ValidationConfidence = v.Confidence
		sig.IsCorroborated = v.IsCorroborated
		sig.IsContradicted = v.IsContradicted
		sig.CorroborationCount = v.CorroborationCount
		sig.EvidenceQuality = v.EvidenceQuality
		sig.ValidationReasoning = v.Reasoning
		sig.ConfidenceMultiplier = m

		adjusted := sig.FinalRelevanceScore * m
		if adjusted > 1 {
			adjusted = 1
		}
		if adjusted < 0 {
			adjusted = 0
		}
		sig.FinalRelevanceScore = adjusted
	}
}
