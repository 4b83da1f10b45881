package rubric

// Lookup scans the bands from highest to lowest and returns the first band
// whose inclusive range contains score. A score shared by two adjacent bands
// belongs to the higher one.
func (r *Rubric) Lookup(score float64) (GradeBand, bool) {
	for _, b := range r.bands {
		if b.Contains(score) {
			return b, true
		}
	}
	return GradeBand{}, false
}

// Grade returns the band for score. Bands are validated to cover [0,100], so
// the fallback to the lowest band is only reached for scores outside the scale.
func (r *Rubric) Grade(score float64) GradeBand {
	if b, ok := r.Lookup(score); ok {
		return b
	}
	return r.bands[len(r.bands)-1]
}
