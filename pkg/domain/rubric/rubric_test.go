package rubric_test

import (
	"errors"
	"math"
	"testing"

	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

func TestDefault_WeightsSumTo100(t *testing.T) {
	for _, locale := range rubric.Locales() {
		t.Run(locale, func(t *testing.T) {
			r, err := rubric.ForLocale(locale)
			if err != nil {
				t.Fatalf("ForLocale(%q): %v", locale, err)
			}
			total := 0.0
			for _, d := range r.Dimensions() {
				total += d.Weight
			}
			if total != 100 {
				t.Fatalf("weights sum to %g, want 100", total)
			}
			if len(r.Dimensions()) != 6 {
				t.Fatalf("expected 6 dimensions, got %d", len(r.Dimensions()))
			}
		})
	}
}

func TestGrade_KnownScores(t *testing.T) {
	r := rubric.Default()
	tests := []struct {
		score float64
		want  rubric.Letter
	}{
		{85, rubric.LetterB},
		{59.9, rubric.LetterF},
		{100, rubric.LetterA},
		{90, rubric.LetterA},
		{89.99, rubric.LetterB},
		{80, rubric.LetterB},
		{70, rubric.LetterC},
		{60, rubric.LetterD},
		{0, rubric.LetterF},
	}
	for _, tt := range tests {
		band, ok := r.Lookup(tt.score)
		if !ok {
			t.Fatalf("Lookup(%g) matched no band", tt.score)
		}
		if band.Letter != tt.want {
			t.Errorf("Lookup(%g) = %s, want %s", tt.score, band.Letter, tt.want)
		}
		if got := r.Grade(tt.score).Letter; got != tt.want {
			t.Errorf("Grade(%g) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestLookup_EveryScoreMatchesExactlyOneBand(t *testing.T) {
	r := rubric.Default()
	bands := r.Bands()

	for i := 0; i <= 10000; i++ {
		score := float64(i) / 100
		band, ok := r.Lookup(score)
		if !ok {
			t.Fatalf("score %g matched no band", score)
		}
		// Outside shared boundary points exactly one band contains the score.
		containing := 0
		for _, b := range bands {
			if b.Contains(score) {
				containing++
			}
		}
		onBoundary := false
		for _, b := range bands[1:] {
			if score == b.Max {
				onBoundary = true
			}
		}
		if !onBoundary && containing != 1 {
			t.Fatalf("score %g contained by %d bands", score, containing)
		}
		if onBoundary && band.Min != score {
			t.Fatalf("boundary score %g assigned to %s, want the higher band", score, band.Letter)
		}
	}
}

func TestBands_PairwiseDisjointAndExhaustive(t *testing.T) {
	bands := rubric.Default().Bands()
	if bands[0].Max != 100 || bands[len(bands)-1].Min != 0 {
		t.Fatalf("bands do not span [0,100]: %+v", bands)
	}
	for i := 0; i < len(bands); i++ {
		for j := i + 1; j < len(bands); j++ {
			lo := math.Max(bands[i].Min, bands[j].Min)
			hi := math.Min(bands[i].Max, bands[j].Max)
			if hi > lo {
				t.Errorf("bands %s and %s overlap on (%g,%g)", bands[i].Letter, bands[j].Letter, lo, hi)
			}
		}
		if i+1 < len(bands) && bands[i].Min != bands[i+1].Max {
			t.Errorf("gap between %s and %s", bands[i].Letter, bands[i+1].Letter)
		}
	}
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	validBands := rubric.Default().Bands()
	validDims := rubric.Default().Dimensions()

	tests := []struct {
		name  string
		dims  []rubric.Dimension
		bands []rubric.GradeBand
	}{
		{"weights short of 100", []rubric.Dimension{{Name: "a", Weight: 50}, {Name: "b", Weight: 40}}, validBands},
		{"weights over 100", []rubric.Dimension{{Name: "a", Weight: 60}, {Name: "b", Weight: 50}}, validBands},
		{"zero weight", []rubric.Dimension{{Name: "a", Weight: 100}, {Name: "b", Weight: 0}}, validBands},
		{"duplicate name", []rubric.Dimension{{Name: "a", Weight: 50}, {Name: "a", Weight: 50}}, validBands},
		{"empty name", []rubric.Dimension{{Name: "", Weight: 100}}, validBands},
		{"no dimensions", nil, validBands},
		{"gap between bands", validDims, []rubric.GradeBand{
			{Letter: rubric.LetterA, Min: 90, Max: 100},
			{Letter: rubric.LetterB, Min: 80, Max: 89},
			{Letter: rubric.LetterF, Min: 0, Max: 80},
		}},
		{"overlapping bands", validDims, []rubric.GradeBand{
			{Letter: rubric.LetterA, Min: 85, Max: 100},
			{Letter: rubric.LetterF, Min: 0, Max: 90},
		}},
		{"does not reach 100", validDims, []rubric.GradeBand{
			{Letter: rubric.LetterA, Min: 50, Max: 99},
			{Letter: rubric.LetterF, Min: 0, Max: 50},
		}},
		{"does not start at 0", validDims, []rubric.GradeBand{
			{Letter: rubric.LetterA, Min: 50, Max: 100},
			{Letter: rubric.LetterF, Min: 10, Max: 50},
		}},
		{"unknown letter", validDims, []rubric.GradeBand{{Letter: "E", Min: 0, Max: 100}}},
		{"no bands", validDims, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rubric.New("test", tt.dims, tt.bands)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !errors.Is(err, rubric.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			var cfgErr *rubric.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
		})
	}
}

func TestNew_SortsBandsAndCopiesInput(t *testing.T) {
	dims := []rubric.Dimension{{Name: "only", Weight: 100, Criteria: []string{"c1"}}}
	bands := []rubric.GradeBand{
		{Letter: rubric.LetterF, Min: 0, Max: 50, Label: "fail"},
		{Letter: rubric.LetterA, Min: 50, Max: 100, Label: "pass"},
	}
	r, err := rubric.New("custom", dims, bands)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dims[0].Name = "mutated"
	dims[0].Criteria[0] = "mutated"

	if r.DimensionNames()[0] != "only" || r.Dimensions()[0].Criteria[0] != "c1" {
		t.Fatalf("rubric shares caller slices: %+v", r.Dimensions())
	}
	if r.Bands()[0].Letter != rubric.LetterA {
		t.Fatalf("expected bands sorted highest first, got %+v", r.Bands())
	}
	if got := r.Grade(50).Letter; got != rubric.LetterA {
		t.Fatalf("Grade(50) = %s, want A", got)
	}
}

func TestWeightOf(t *testing.T) {
	r := rubric.Default()
	w, ok := r.WeightOf("Root Cause Analysis")
	if !ok || w != 20 {
		t.Fatalf("WeightOf(Root Cause Analysis) = %g, %v", w, ok)
	}
	if _, ok := r.WeightOf("Unknown"); ok {
		t.Fatal("expected unknown dimension to be missing")
	}
}

func TestForLocale_Unknown(t *testing.T) {
	_, err := rubric.ForLocale("fr")
	if !errors.Is(err, rubric.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	r, err := rubric.ForLocale("")
	if err != nil || r.Locale() != rubric.LocaleEnglish {
		t.Fatalf("empty locale should select English, got %v %v", r, err)
	}
}

func TestGrade_FallbackOutsideScale(t *testing.T) {
	r := rubric.Default()
	if _, ok := r.Lookup(120); ok {
		t.Fatal("Lookup(120) should not match")
	}
	if got := r.Grade(-5).Letter; got != rubric.LetterF {
		t.Fatalf("Grade(-5) = %s, want fallback F", got)
	}
}
