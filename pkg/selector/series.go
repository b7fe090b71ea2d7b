package selector

import (
	"github.com/turboflakes/onet-cache/pkg/metrics"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// MvrBySessions returns the session-level missed-vote ratios across the id
// window, skipping sessions without stats.
func MvrBySessions(st *store.Store, ids []uint32) []float64 {
	out := make([]float64, 0, len(ids))
	for _, s := range SessionsByIDs(st, ids) {
		if s.Mvr != nil {
			out = append(out, *s.Mvr)
		}
	}
	return out
}

// TotalPointsBySessions returns stats.pt across the id window.
func TotalPointsBySessions(st *store.Store, ids []uint32) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, s := range SessionsByIDs(st, ids) {
		if s.Stats != nil {
			out = append(out, s.Stats.Points)
		}
	}
	return out
}

// AuthoredBlocksBySessions returns stats.ab across the id window.
func AuthoredBlocksBySessions(st *store.Store, ids []uint32) []uint32 {
	out := make([]uint32, 0, len(ids))
	for _, s := range SessionsByIDs(st, ids) {
		if s.Stats != nil {
			out = append(out, s.Stats.AuthoredBlocks)
		}
	}
	return out
}

// DisputesBySessions returns stats.di across the id window.
func DisputesBySessions(st *store.Store, ids []uint32) []uint32 {
	out := make([]uint32, 0, len(ids))
	for _, s := range SessionsByIDs(st, ids) {
		if s.Stats != nil {
			out = append(out, s.Stats.Disputes)
		}
	}
	return out
}

// NetBackingPointsBySessions returns the session points net of the
// block-authoring reward across the id window.
func NetBackingPointsBySessions(st *store.Store, ids []uint32) []int64 {
	out := make([]int64, 0, len(ids))
	for _, s := range SessionsByIDs(st, ids) {
		if s.Stats != nil {
			out = append(out, int64(s.Stats.Points)-int64(s.Stats.AuthoredBlocks)*metrics.AuthoredBlockPoints)
		}
	}
	return out
}

// EraPointsBySession sums stats.pt across the sessions of the era
// preceding the given session, plus the current session's provisional
// points from the latest finalized block. Returns 0 for unknown sessions.
func EraPointsBySession(st *store.Store, six uint32) uint64 {
	session, ok := st.Sessions.Get(six)
	if !ok {
		return 0
	}

	// Esix is 1-based within the era: the era's earlier sessions are
	// six-1 down to six-(esix-1).
	ids := make([]uint32, 0, session.Esix)
	for i := uint32(1); i < session.Esix && i < six; i++ {
		ids = append(ids, six-i)
	}

	var total uint64
	for _, pt := range TotalPointsBySessions(st, ids) {
		total += pt
	}

	if fb := st.FinalizedBlock(); fb != nil && fb.Stats != nil {
		total += fb.Stats.Points
	}
	return total
}
