// Package rubric holds the weighted evaluation dimensions and grade bands used
// to score failure-analysis reports.
package rubric

import (
	"fmt"
	"math"
	"strings"
)

// Letter is a grade letter.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterF Letter = "F"
)

// Letters lists the known grade letters from best to worst.
func Letters() []Letter {
	return []Letter{LetterA, LetterB, LetterC, LetterD, LetterF}
}

// IsValid reports whether l is one of the known letters.
func (l Letter) IsValid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD, LetterF:
		return true
	}
	return false
}

// MaxScore is the upper bound of the total score scale.
const MaxScore = 100.0

const weightTolerance = 1e-9

// Dimension is one weighted axis of evaluation.
type Dimension struct {
	Name     string   `json:"name" yaml:"name"`
	Weight   float64  `json:"weight" yaml:"weight"`
	Criteria []string `json:"criteria,omitempty" yaml:"criteria,omitempty"`
}

// GradeBand maps an inclusive score range to a letter.
type GradeBand struct {
	Letter Letter  `json:"letter" yaml:"letter"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Label  string  `json:"label" yaml:"label"`
}

// Contains reports whether score lies within [Min, Max].
func (b GradeBand) Contains(score float64) bool {
	return score >= b.Min && score <= b.Max
}

// Rubric is an immutable set of dimensions and grade bands. Build one with New;
// the zero value is not usable.
type Rubric struct {
	locale     string
	dimensions []Dimension
	bands      []GradeBand
	weights    map[string]float64
}

// New validates dimensions and bands and returns a Rubric. Bands may be given
// in any order; they are kept sorted from the highest band to the lowest.
func New(locale string, dimensions []Dimension, bands []GradeBand) (*Rubric, error) {
	if err := validateDimensions(dimensions); err != nil {
		return nil, err
	}
	sorted, err := validateBands(bands)
	if err != nil {
		return nil, err
	}

	dims := make([]Dimension, len(dimensions))
	weights := make(map[string]float64, len(dimensions))
	for i, d := range dimensions {
		criteria := append([]string(nil), d.Criteria...)
		dims[i] = Dimension{Name: d.Name, Weight: d.Weight, Criteria: criteria}
		weights[d.Name] = d.Weight
	}

	return &Rubric{
		locale:     locale,
		dimensions: dims,
		bands:      sorted,
		weights:    weights,
	}, nil
}

// MustNew is New that panics on invalid input. Use only with literal rubrics.
func MustNew(locale string, dimensions []Dimension, bands []GradeBand) *Rubric {
	r, err := New(locale, dimensions, bands)
	if err != nil {
		panic(err)
	}
	return r
}

func validateDimensions(dimensions []Dimension) error {
	if len(dimensions) == 0 {
		return configErr("rubric has no dimensions")
	}
	seen := make(map[string]bool, len(dimensions))
	total := 0.0
	for _, d := range dimensions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return configErr("dimension name cannot be empty")
		}
		if name != d.Name {
			return configErr(fmt.Sprintf("dimension %q has surrounding whitespace", d.Name))
		}
		if seen[name] {
			return configErr(fmt.Sprintf("duplicate dimension %q", name))
		}
		seen[name] = true
		if d.Weight <= 0 || d.Weight > MaxScore {
			return configErr(fmt.Sprintf("dimension %q weight %g outside (0,100]", name, d.Weight))
		}
		total += d.Weight
	}
	if math.Abs(total-MaxScore) > weightTolerance {
		return configErr(fmt.Sprintf("dimension weights sum to %g, want 100", total))
	}
	return nil
}

func validateBands(bands []GradeBand) ([]GradeBand, error) {
	if len(bands) == 0 {
		return nil, configErr("rubric has no grade bands")
	}

	byLetter := make(map[Letter]GradeBand, len(bands))
	for _, b := range bands {
		if !b.Letter.IsValid() {
			return nil, configErr(fmt.Sprintf("unknown grade letter %q", b.Letter))
		}
		if _, dup := byLetter[b.Letter]; dup {
			return nil, configErr(fmt.Sprintf("duplicate grade band %s", b.Letter))
		}
		if b.Min > b.Max {
			return nil, configErr(fmt.Sprintf("grade band %s has min %g above max %g", b.Letter, b.Min, b.Max))
		}
		byLetter[b.Letter] = b
	}

	sorted := make([]GradeBand, 0, len(bands))
	for _, l := range Letters() {
		if b, ok := byLetter[l]; ok {
			sorted = append(sorted, b)
		}
	}

	if sorted[0].Max != MaxScore {
		return nil, configErr(fmt.Sprintf("highest band %s ends at %g, want 100", sorted[0].Letter, sorted[0].Max))
	}
	last := sorted[len(sorted)-1]
	if last.Min != 0 {
		return nil, configErr(fmt.Sprintf("lowest band %s starts at %g, want 0", last.Letter, last.Min))
	}
	for i := 0; i < len(sorted)-1; i++ {
		upper, lower := sorted[i], sorted[i+1]
		switch {
		case lower.Max < upper.Min:
			return nil, configErr(fmt.Sprintf("gap between band %s (%g) and band %s (%g)", lower.Letter, lower.Max, upper.Letter, upper.Min))
		case lower.Max > upper.Min:
			return nil, configErr(fmt.Sprintf("band %s overlaps band %s", lower.Letter, upper.Letter))
		}
	}
	return sorted, nil
}

// Locale returns the locale tag the rubric was built for.
func (r *Rubric) Locale() string { return r.locale }

// Dimensions returns the dimensions in rubric order.
func (r *Rubric) Dimensions() []Dimension {
	out := make([]Dimension, len(r.dimensions))
	for i, d := range r.dimensions {
		out[i] = Dimension{Name: d.Name, Weight: d.Weight, Criteria: append([]string(nil), d.Criteria...)}
	}
	return out
}

// DimensionNames returns the dimension names in rubric order.
func (r *Rubric) DimensionNames() []string {
	names := make([]string, len(r.dimensions))
	for i, d := range r.dimensions {
		names[i] = d.Name
	}
	return names
}

// Bands returns the grade bands from highest to lowest.
func (r *Rubric) Bands() []GradeBand {
	return append([]GradeBand(nil), r.bands...)
}

// WeightOf returns the weight of the named dimension.
func (r *Rubric) WeightOf(name string) (float64, bool) {
	w, ok := r.weights[name]
	return w, ok
}

// Band returns the band for a letter.
func (r *Rubric) Band(letter Letter) (GradeBand, bool) {
	for _, b := range r.bands {
		if b.Letter == letter {
			return b, true
		}
	}
	return GradeBand{}, false
}
