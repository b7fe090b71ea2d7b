package metrics

// GradeF is the lowest grade a para-validator can earn in a session.
const GradeF = "F"

// Grade maps a backing-vote ratio (1 - MVR) to a letter grade.
// Thresholds are strict, so a ratio of exactly 0.95 grades B+, not A.
func Grade(ratio float64) string {
	switch {
	case ratio > 0.99:
		return "A+"
	case ratio > 0.95:
		return "A"
	case ratio > 0.90:
		return "B+"
	case ratio > 0.80:
		return "B"
	case ratio > 0.70:
		return "C+"
	case ratio > 0.60:
		return "C"
	case ratio > 0.50:
		return "D+"
	case ratio > 0.40:
		return "D"
	default:
		return GradeF
	}
}
