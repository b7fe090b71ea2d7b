package onet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestQueryFingerprints verifies that every parameter participates in the
// cache key and that equal parameter sets produce equal keys.
func TestQueryFingerprints(t *testing.T) {
	a := ValidatorsQuery{Session: 100, Role: "authority", ShowSummary: true}
	b := ValidatorsQuery{Session: 100, Role: "authority", ShowSummary: true}
	c := ValidatorsQuery{Session: 101, Role: "authority", ShowSummary: true}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// The comma-list form is a distinct query from the single-session form.
	d := ValidatorsQuery{Sessions: []uint32{99, 100}, ShowSummary: true}
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
	assert.True(t, d.IsInsights())
	assert.False(t, a.IsInsights())
}

func TestSessionsQuery_Values(t *testing.T) {
	q := SessionsQuery{NumberLastSessions: 5, ShowStats: true}
	v := q.Values()
	assert.Equal(t, "5", v.Get("number_last_sessions"))
	assert.Equal(t, "true", v.Get("show_stats"))
	assert.Empty(t, v.Get("from"))
	assert.Equal(t, "/sessions?number_last_sessions=5&show_stats=true", q.Fingerprint())
}

func TestPoolsQuery_SinglePool(t *testing.T) {
	assert.True(t, PoolsQuery{Pool: 12}.IsSinglePool())
	assert.False(t, PoolsQuery{Session: 100}.IsSinglePool())
	assert.Equal(t, "/pools?pool=12", PoolsQuery{Pool: 12}.Fingerprint())
}
