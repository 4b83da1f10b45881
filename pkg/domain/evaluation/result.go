// Package evaluation defines the analysis result of a failure-analysis report
// and the errors raised while producing it.
package evaluation

import "github.com/felixgeelhaar/fareview/pkg/domain/rubric"

// Priority ranks an improvement item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the accepted priority values.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// DimensionScore is the evaluator's score for one rubric dimension.
type DimensionScore struct {
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	Comment    string  `json:"comment"`
}

// ImprovementItem is one suggested improvement.
type ImprovementItem struct {
	Priority   Priority `json:"priority"`
	Item       string   `json:"item"`
	Suggestion string   `json:"suggestion"`
}

// AnalysisResult is the validated assessment of a single report. It is not
// mutated after validation.
type AnalysisResult struct {
	TotalScore      float64                   `json:"totalScore"`
	Grade           rubric.Letter             `json:"grade"`
	DimensionScores map[string]DimensionScore `json:"dimensionScores"`
	Strengths       []string                  `json:"strengths"`
	Improvements    []ImprovementItem         `json:"improvements"`
	Summary         string                    `json:"summary"`
}
