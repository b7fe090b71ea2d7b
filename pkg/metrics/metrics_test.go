package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMvr(t *testing.T) {
	assert.InDelta(t, 0.1, Mvr(8, 1, 1), 1e-9)
	assert.InDelta(t, 1.0, Mvr(0, 0, 5), 1e-9)
	assert.InDelta(t, 0.0, Mvr(10, 2, 0), 1e-9)
}

// TestMvr_NoVotes verifies an empty summary does not divide by zero.
func TestMvr_NoVotes(t *testing.T) {
	assert.Equal(t, 0.0, Mvr(0, 0, 0))
}

func TestGrade_Boundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0.991, "A+"},
		{0.99, "A"},
		{0.96, "A"},
		// Thresholds are strict: exactly 0.95 fails the A cut.
		{0.95, "B+"},
		{0.91, "B+"},
		{0.90, "B"},
		{0.81, "B"},
		{0.75, "C+"},
		{0.65, "C"},
		{0.55, "D+"},
		{0.401, "D"},
		{0.40, "F"},
		{0.0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestBackingPoints_Clamp(t *testing.T) {
	// 100 - 20 - 5*20 would go negative, clamps at zero.
	assert.Equal(t, uint64(0), BackingPoints(100, 20, 5))
	// 200 - 20 - 2*20 = 140.
	assert.Equal(t, uint64(140), BackingPoints(200, 20, 2))
	// No authored blocks, plain delta.
	assert.Equal(t, uint64(80), BackingPoints(100, 20, 0))
}
