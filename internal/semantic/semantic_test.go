// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semantic

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/geointel-engine/internal/cache"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

// --- mock classifier ---

type mockClassifier struct {
	byTitle map[string]Assessment
	err     error
	calls   int32
}

func (m *mockClassifier) Assess(_ context.Context, signal types.IntelligenceSignal, _ types.AssetProfile, _ []types.ThemeRelevance) (Assessment, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return Assessment{}, m.err
	}
	return m.byTitle[signal.Title], nil
}

func testSignals(titles ...string) []types.IntelligenceSignal {
	var signals []types.IntelligenceSignal
	for _, title := range titles {
		signals = append(signals, types.IntelligenceSignal{Title: title, Summary: "summary"})
	}
	return signals
}

func newTestFilter(c Classifier) *Filter {
	return NewFilter(c, cache.New[Assessment](time.Minute), types.SemanticConfig{Threshold: 0.6, Concurrency: 2})
}

// --- parseAssessment ---

func TestParseAssessment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Assessment
		wantErr bool
	}{
		{
			"clean json",
			`{"is_relevant": true, "relevance_score": 0.8, "confidence": 0.9, "reasoning": "direct exposure"}`,
			Assessment{IsRelevant: true, Relevance: 0.8, Confidence: 0.9, Reasoning: "direct exposure"},
			false,
		},
		{
			"json wrapped in prose",
			"Here is my assessment:\n{\"is_relevant\": false, \"relevance_score\": 0.1, \"confidence\": 0.7, \"reasoning\": \"unrelated\"}\nDone.",
			Assessment{IsRelevant: false, Relevance: 0.1, Confidence: 0.7, Reasoning: "unrelated"},
			false,
		},
		{
			"repairable json with trailing comma",
			`{"is_relevant": true, "relevance_score": 0.7, "confidence": 0.8, "reasoning": "ok",}`,
			Assessment{IsRelevant: true, Relevance: 0.7, Confidence: 0.8, Reasoning: "ok"},
			false,
		},
		{
			"relevance out of range",
			`{"is_relevant": true, "relevance_score": 1.5, "confidence": 0.8, "reasoning": "bad"}`,
			Assessment{},
			true,
		},
		{
			"no json at all",
			"I cannot assess this signal.",
			Assessment{},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssessment(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAssessment() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseAssessment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// --- Filter.Run ---

func TestFilterRemovesIrrelevant(t *testing.T) {
	classifier := &mockClassifier{byTitle: map[string]Assessment{
		"relevant story":   {IsRelevant: true, Relevance: 0.9, Confidence: 0.8, Reasoning: "on point"},
		"borderline story": {IsRelevant: true, Relevance: 0.4, Confidence: 0.8, Reasoning: "weak link"},
		"irrelevant story": {IsRelevant: false, Relevance: 0.9, Confidence: 0.8, Reasoning: "off topic"},
	}}
	f := newTestFilter(classifier)

	kept, removed := f.Run(context.Background(), testSignals("relevant story", "borderline story", "irrelevant story"),
		types.AssetProfile{Country: "Turkey"}, nil, 0, &bytes.Buffer{})

	if removed != 2 {
		t.Errorf("removed = %d, want 2 (below threshold and not relevant)", removed)
	}
	if len(kept) != 1 || kept[0].Title != "relevant story" {
		t.Fatalf("kept = %d signals, want only the relevant story", len(kept))
	}
	if kept[0].SemanticRelevance != 0.9 || kept[0].SemanticReasoning != "on point" {
		t.Errorf("semantic fields not populated: %+v", kept[0])
	}
}

func TestFilterFailsOpen(t *testing.T) {
	classifier := &mockClassifier{err: fmt.Errorf("api down")}
	f := newTestFilter(classifier)

	var buf bytes.Buffer
	kept, removed := f.Run(context.Background(), testSignals("story one", "story two"),
		types.AssetProfile{}, nil, 0, &buf)

	if removed != 0 {
		t.Errorf("removed = %d, want 0 (fail open)", removed)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d signals, want 2", len(kept))
	}
	for _, sig := range kept {
		if sig.SemanticRelevance != 0 {
			t.Errorf("failed assessment left semantic fields set: %+v", sig)
		}
	}
	if !strings.Contains(buf.String(), "api down") {
		t.Errorf("warning not written: %q", buf.String())
	}
}

func TestFilterCachesAssessments(t *testing.T) {
	classifier := &mockClassifier{byTitle: map[string]Assessment{
		"repeat story": {IsRelevant: true, Relevance: 0.9, Confidence: 0.8},
	}}
	f := newTestFilter(classifier)
	profile := types.AssetProfile{Country: "Turkey", Sector: "Financials"}

	f.Run(context.Background(), testSignals("repeat story"), profile, nil, 0, &bytes.Buffer{})
	f.Run(context.Background(), testSignals("repeat story"), profile, nil, 0, &bytes.Buffer{})

	if n := atomic.LoadInt32(&classifier.calls); n != 1 {
		t.Errorf("classifier called %d times, want 1 (cache hit)", n)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	f := newTestFilter(&mockClassifier{})
	kept, removed := f.Run(context.Background(), nil, types.AssetProfile{}, nil, 0, &bytes.Buffer{})
	if kept != nil || removed != 0 {
		t.Errorf("empty input = (%v, %d), want (nil, 0)", kept, removed)
	}
}

func TestFilterThresholdOverride(t *testing.T) {
	classifier := &mockClassifier{byTitle: map[string]Assessment{
		"strong story": {IsRelevant: true, Relevance: 0.9, Confidence: 0.8},
	}}
	f := newTestFilter(classifier)

	kept, _ := f.Run(context.Background(), testSignals("strong story"),
		types.AssetProfile{}, nil, 0, &bytes.Buffer{})
	if len(kept) != 1 {
		t.Fatalf("configured threshold kept %d signals, want 1", len(kept))
	}

	kept, removed := f.Run(context.Background(), testSignals("strong story"),
		types.AssetProfile{}, nil, 0.95, &bytes.Buffer{})
	if len(kept) != 0 || removed != 1 {
		t.Errorf("override threshold = (%d kept, %d removed), want (0, 1)", len(kept), removed)
	}
}

// --- assessmentKey ---

func TestAssessmentKeyThemeOrderInsensitive(t *testing.T) {
	sig := types.IntelligenceSignal{Title: "t", Summary: "s"}
	profile := types.AssetProfile{Country: "Turkey"}

	a := assessmentKey(sig, profile, []types.ThemeRelevance{{Theme: "alpha"}, {Theme: "beta"}})
	b := assessmentKey(sig, profile, []types.ThemeRelevance{{Theme: "beta"}, {Theme: "alpha"}})
	if a != b {
		t.Error("theme order changed the assessment key")
	}

	c := assessmentKey(sig, types.AssetProfile{Country: "Brazil"}, []types.ThemeRelevance{{Theme: "alpha"}})
	if a == c {
		t.Error("different profiles produced the same key")
	}
}
