package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

func TestResultValidator_Valid(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())
	doc := responseDoc(91, "A")
	doc["modelNotes"] = "extra top-level fields are ignored"

	result, warnings, err := v.Validate(encode(t, doc))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
	if result.TotalScore != 91 || result.Grade != rubric.LetterA || len(result.DimensionScores) != 6 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Improvements[0].Priority != evaluation.PriorityLow {
		t.Fatalf("improvement order changed: %+v", result.Improvements)
	}
}

func TestResultValidator_StripsFences(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())
	body := encode(t, responseDoc(91, "A"))

	for name, raw := range map[string]string{
		"json fence":  "```json\n" + body + "\n```",
		"plain fence": "```\n" + body + "\n```",
		"whitespace":  "\n\n  " + body + "  \n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := v.Validate(raw); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestResultValidator_ResponseFormatError(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())
	body := encode(t, responseDoc(91, "A"))

	for name, raw := range map[string]string{
		"prose around json": "Here is my evaluation:\n" + body,
		"not json":          "I cannot evaluate this report.",
		"empty":             "",
		"truncated":         body[:len(body)/2],
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := v.Validate(raw)
			if !errors.Is(err, evaluation.ErrResponseFormat) {
				t.Fatalf("expected ResponseFormatError, got %v", err)
			}
			var fe *evaluation.ResponseFormatError
			if !errors.As(err, &fe) || len([]rune(fe.Snippet)) > 503 {
				t.Fatalf("expected bounded snippet, got %#v", err)
			}
		})
	}
}

func TestResultValidator_SchemaErrors(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{"missing dimension", func(d map[string]any) {
			delete(d["dimensionScores"].(map[string]any), "Root Cause Analysis")
		}, `missing dimension "Root Cause Analysis"`},
		{"unknown dimension", func(d map[string]any) {
			d["dimensionScores"].(map[string]any)["Presentation"] = map[string]any{"score": 1, "percentage": 10, "comment": ""}
		}, `unknown dimension "Presentation"`},
		{"score above weight", func(d map[string]any) {
			d["dimensionScores"].(map[string]any)["Corrective Actions"] = map[string]any{"score": 15, "percentage": 100, "comment": ""}
		}, "score"},
		{"total above 100", func(d map[string]any) { d["totalScore"] = 120 }, "totalScore"},
		{"bad grade", func(d map[string]any) { d["grade"] = "E" }, "grade"},
		{"bad priority", func(d map[string]any) {
			d["improvements"] = []any{map[string]any{"priority": "urgent", "item": "x", "suggestion": "y"}}
		}, "priority"},
		{"missing summary", func(d map[string]any) { delete(d, "summary") }, "summary"},
		{"score as string", func(d map[string]any) {
			d["dimensionScores"].(map[string]any)["Corrective Actions"] = map[string]any{"score": "9", "percentage": 90, "comment": ""}
		}, "score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := responseDoc(91, "A")
			tt.mutate(doc)

			_, _, err := v.Validate(encode(t, doc))
			if !errors.Is(err, evaluation.ErrSchema) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			var se *evaluation.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %T", err)
			}
			if !strings.Contains(strings.Join(se.Violations, "\n"), tt.want) {
				t.Fatalf("violations %q do not mention %q", se.Violations, tt.want)
			}
		})
	}
}

func TestResultValidator_ReportsEveryViolation(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())
	doc := responseDoc(91, "A")
	dims := doc["dimensionScores"].(map[string]any)
	delete(dims, "Root Cause Analysis")
	delete(dims, "Corrective Actions")
	dims["Extra"] = map[string]any{"score": 1, "percentage": 1, "comment": ""}

	_, _, err := v.Validate(encode(t, doc))
	var se *evaluation.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(se.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %q", se.Violations)
	}
}

func TestResultValidator_NotAnObject(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())
	if _, _, err := v.Validate(`[1, 2, 3]`); !errors.Is(err, evaluation.ErrSchema) {
		t.Fatalf("expected SchemaError for an array, got %v", err)
	}
}

func TestResultValidator_GradeMismatchIsRecoverable(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())

	result, warnings, err := v.Validate(encode(t, responseDoc(91, "B")))
	if err != nil {
		t.Fatalf("grade mismatch must not fail: %v", err)
	}
	if result.Grade != rubric.LetterA {
		t.Fatalf("grade = %s, want recomputed A", result.Grade)
	}
	if len(warnings) != 1 || warnings[0].Kind != evaluation.WarningGrade {
		t.Fatalf("expected one grade warning, got %+v", warnings)
	}
	w := warnings[0]
	if w.SuppliedGrade != rubric.LetterB || w.ComputedGrade != rubric.LetterA || w.TotalScore != 91 {
		t.Fatalf("unexpected warning %+v", w)
	}
}

func TestResultValidator_TotalMismatchWarning(t *testing.T) {
	v := application.NewResultValidator(rubric.Default())

	result, warnings, err := v.Validate(encode(t, responseDoc(85, "B")))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.TotalScore != 85 {
		t.Fatalf("total score must be kept as supplied, got %v", result.TotalScore)
	}
	if len(warnings) != 1 || warnings[0].Kind != evaluation.WarningTotal || warnings[0].DimensionSum != 91 {
		t.Fatalf("expected total warning, got %+v", warnings)
	}

	if _, warnings, _ := v.Validate(encode(t, responseDoc(90.6, "A"))); len(warnings) != 0 {
		t.Fatalf("difference within tolerance should not warn: %+v", warnings)
	}
}
