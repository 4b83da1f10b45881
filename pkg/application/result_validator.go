package application

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

// totalTolerance is how far totalScore may drift from the sum of the
// dimension scores before a warning is raised.
const totalTolerance = 0.5

// ResultValidator turns raw evaluator text into a checked AnalysisResult.
type ResultValidator struct {
	rubric *rubric.Rubric
	schema gojsonschema.JSONLoader
}

func NewResultValidator(r *rubric.Rubric) *ResultValidator {
	return &ResultValidator{rubric: r, schema: gojsonschema.NewGoLoader(resultSchema(r))}
}

// resultSchema describes a response for r: every rubric dimension present,
// no others, each score bounded by its weight.
func resultSchema(r *rubric.Rubric) map[string]any {
	dims := r.Dimensions()
	names := make([]string, len(dims))
	props := make(map[string]any, len(dims))
	for i, d := range dims {
		names[i] = d.Name
		props[d.Name] = map[string]any{
			"type":     "object",
			"required": []string{"score", "percentage"},
			"properties": map[string]any{
				"score":      map[string]any{"type": "number", "minimum": 0, "maximum": d.Weight},
				"percentage": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"comment":    map[string]any{"type": "string"},
			},
		}
	}

	letters := make([]string, 0, len(rubric.Letters()))
	for _, l := range rubric.Letters() {
		letters = append(letters, string(l))
	}
	priorities := make([]string, 0, 3)
	for _, p := range evaluation.Priorities() {
		priorities = append(priorities, string(p))
	}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []string{"totalScore", "grade", "dimensionScores", "strengths", "improvements", "summary"},
		"properties": map[string]any{
			"totalScore": map[string]any{"type": "number", "minimum": 0, "maximum": rubric.MaxScore},
			"grade":      map[string]any{"type": "string", "enum": letters},
			"dimensionScores": map[string]any{
				"type":                 "object",
				"required":             names,
				"properties":           props,
				"additionalProperties": false,
			},
			"strengths": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"improvements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"priority", "item", "suggestion"},
					"properties": map[string]any{
						"priority":   map[string]any{"type": "string", "enum": priorities},
						"item":       map[string]any{"type": "string"},
						"suggestion": map[string]any{"type": "string"},
					},
				},
			},
			"summary": map[string]any{"type": "string"},
		},
	}
}

// Validate parses raw, checks it against the rubric and cross-checks the
// grade and total. Grade and total disagreements are returned as warnings;
// the result carries the grade recomputed from totalScore.
func (v *ResultValidator) Validate(raw string) (evaluation.AnalysisResult, []evaluation.ConsistencyWarning, error) {
	var result evaluation.AnalysisResult

	payload := stripFences(raw)
	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return result, nil, evaluation.NewResponseFormatError(raw, err)
	}

	if violations := v.violations(doc); len(violations) > 0 {
		return result, nil, &evaluation.SchemaError{Violations: violations}
	}

	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return result, nil, &evaluation.SchemaError{Violations: []string{err.Error()}}
	}

	var warnings []evaluation.ConsistencyWarning
	computed := v.rubric.Grade(result.TotalScore)
	if computed.Letter != result.Grade {
		warnings = append(warnings, evaluation.ConsistencyWarning{
			Kind:          evaluation.WarningGrade,
			TotalScore:    result.TotalScore,
			SuppliedGrade: result.Grade,
			ComputedGrade: computed.Letter,
		})
		result.Grade = computed.Letter
	}

	sum := 0.0
	for _, s := range result.DimensionScores {
		sum += s.Score
	}
	if math.Abs(sum-result.TotalScore) > totalTolerance {
		warnings = append(warnings, evaluation.ConsistencyWarning{
			Kind:         evaluation.WarningTotal,
			TotalScore:   result.TotalScore,
			DimensionSum: math.Round(sum*100) / 100,
		})
	}

	return result, warnings, nil
}

func (v *ResultValidator) violations(doc any) []string {
	var out []string
	reported := make(map[string]bool)

	if obj, ok := doc.(map[string]any); ok {
		if scores, ok := obj["dimensionScores"].(map[string]any); ok {
			for _, name := range v.rubric.DimensionNames() {
				if _, ok := scores[name]; !ok {
					out = append(out, fmt.Sprintf("missing dimension %q", name))
					reported[name] = true
				}
			}
			var extra []string
			for name := range scores {
				if _, ok := v.rubric.WeightOf(name); !ok {
					extra = append(extra, name)
				}
			}
			sort.Strings(extra)
			for _, name := range extra {
				out = append(out, fmt.Sprintf("unknown dimension %q", name))
				reported[name] = true
			}
		}
	}

	res, err := gojsonschema.Validate(v.schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return append(out, "schema check failed: "+err.Error())
	}
	if res.Valid() {
		return out
	}
	for _, e := range res.Errors() {
		if prop, ok := e.Details()["property"].(string); ok && reported[prop] {
			continue
		}
		out = append(out, e.String())
	}
	return out
}

// stripFences removes surrounding whitespace and a markdown code fence.
// Anything else around the JSON is left for the parser to reject.
func stripFences(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	clean = strings.TrimPrefix(clean, "```")
	if nl := strings.IndexByte(clean, '\n'); nl >= 0 {
		lang := strings.TrimSpace(clean[:nl])
		if lang == "" || !strings.ContainsAny(lang, "{[") {
			clean = clean[nl+1:]
		}
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
