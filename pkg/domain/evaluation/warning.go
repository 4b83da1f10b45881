package evaluation

import (
	"fmt"

	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

// WarningKind classifies a ConsistencyWarning.
type WarningKind string

const (
	// WarningGrade flags a supplied grade that disagrees with the band of the
	// supplied total score.
	WarningGrade WarningKind = "grade"
	// WarningTotal flags a total score that differs from the sum of the
	// dimension scores.
	WarningTotal WarningKind = "total"
)

// ConsistencyWarning is a recoverable discrepancy in evaluator output. The
// report is still produced and the discrepancy is shown in it.
type ConsistencyWarning struct {
	Kind          WarningKind   `json:"kind"`
	TotalScore    float64       `json:"totalScore"`
	SuppliedGrade rubric.Letter `json:"suppliedGrade,omitempty"`
	ComputedGrade rubric.Letter `json:"computedGrade,omitempty"`
	DimensionSum  float64       `json:"dimensionSum,omitempty"`
}

func (w *ConsistencyWarning) Error() string { return w.Message() }

// Message describes the discrepancy for humans.
func (w *ConsistencyWarning) Message() string {
	switch w.Kind {
	case WarningGrade:
		return fmt.Sprintf("evaluator reported grade %s, but a total score of %.1f falls in band %s; grade recomputed as %s",
			w.SuppliedGrade, w.TotalScore, w.ComputedGrade, w.ComputedGrade)
	case WarningTotal:
		return fmt.Sprintf("evaluator reported a total score of %.1f, but the dimension scores sum to %.1f",
			w.TotalScore, w.DimensionSum)
	}
	return "evaluator output is inconsistent"
}
