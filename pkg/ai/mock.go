package ai

import (
	"context"
	"encoding/json"
	"math"

	"github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

// mockRatio is the share of each dimension's weight the mock awards.
const mockRatio = 0.82

// MockProvider answers without a network call. With no fixed Response it
// returns a well-formed evaluation for Rubric (the default rubric when nil).
type MockProvider struct {
	Model    string
	Rubric   *rubric.Rubric
	Response string
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := m.Response
	if text == "" {
		r := m.Rubric
		if r == nil {
			r = rubric.Default()
		}
		data, err := json.MarshalIndent(SampleResult(r), "", "  ")
		if err != nil {
			return nil, err
		}
		text = string(data)
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: m.Model,
		Usage: ai.TokenUsage{
			InputTokens:  len(req.Prompt)/4 + 1,
			OutputTokens: len(text)/4 + 1,
		},
	}, nil
}

// SampleResult builds a consistent evaluation for r: every dimension earns
// the same share of its weight and the grade matches the total.
func SampleResult(r *rubric.Rubric) evaluation.AnalysisResult {
	scores := make(map[string]evaluation.DimensionScore, len(r.Dimensions()))
	total := 0.0
	for _, d := range r.Dimensions() {
		score := math.Round(d.Weight*mockRatio*10) / 10
		total += score
		scores[d.Name] = evaluation.DimensionScore{
			Score:      score,
			Percentage: math.Round(score/d.Weight*1000) / 10,
			Comment:    "Covers most criteria; some supporting detail is thin.",
		}
	}
	total = math.Round(total*10) / 10

	return evaluation.AnalysisResult{
		TotalScore:      total,
		Grade:           r.Grade(total).Letter,
		DimensionScores: scores,
		Strengths: []string{
			"Failure phenomenon and scope are described clearly",
			"Analysis steps follow a logical sequence",
		},
		Improvements: []evaluation.ImprovementItem{
			{Priority: evaluation.PriorityHigh, Item: "Verification plan", Suggestion: "Describe how the corrective action will be verified and by when."},
			{Priority: evaluation.PriorityMedium, Item: "Comparison samples", Suggestion: "Add a known-good sample to the cross-section images."},
		},
		Summary: "A sound report whose conclusions would be stronger with more quantitative evidence.",
	}
}
