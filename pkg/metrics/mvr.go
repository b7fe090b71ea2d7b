// Package metrics holds the pure validator-performance math shared by the
// reconciler and the selectors: missed-vote ratios, backing points and the
// letter grades derived from them.
package metrics

// Mvr returns the missed-vote ratio for the given para vote counts.
// Returns 0 when no votes were recorded, so an idle para-validator is
// never penalized for an empty summary.
func Mvr(explicit, implicit, missed uint32) float64 {
	total := explicit + implicit + missed
	if total == 0 {
		return 0
	}
	return float64(missed) / float64(total)
}
