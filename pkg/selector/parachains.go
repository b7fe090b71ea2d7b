package selector

import (
	"sort"

	"github.com/turboflakes/onet-cache/pkg/store"
)

// ParachainBySessionAndParaID returns the stored parachain record.
func ParachainBySessionAndParaID(st *store.Store, six, paraID uint32) (store.Parachain, bool) {
	return st.Parachains.Get(store.ParachainKey{Six: six, ParaID: paraID})
}

// ParachainIDsBySession returns the session's stored parachain id list.
func ParachainIDsBySession(st *store.Store, six uint32) []uint32 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.ParachainIDs
	}
	return nil
}

// parachainAggregate resolves a parachain's performance through its
// assigned group. A parachain without a group contributes zeroes.
func parachainAggregate(st *store.Store, six, paraID uint32) ValGroup {
	p, ok := ParachainBySessionAndParaID(st, six, paraID)
	if !ok || p.Group == nil {
		return ValGroup{Six: six}
	}
	g, _ := ValGroupBySessionAndGroupID(st, six, *p.Group)
	return g
}

// ParaSortKey selects the aggregate a parachain listing is ordered by.
type ParaSortKey string

const (
	ParaSortDefault       ParaSortKey = ""
	ParaSortBackingPoints ParaSortKey = "backing_points"
	ParaSortMvr           ParaSortKey = "mvr"
)

// ParachainIDsBySessionSortedBy orders the session's parachains descending
// by their assigned group's aggregate. Ties keep the stored order.
func ParachainIDsBySessionSortedBy(st *store.Store, six uint32, by ParaSortKey) []uint32 {
	ids := ParachainIDsBySession(st, six)
	if by == ParaSortDefault || len(ids) == 0 {
		return ids
	}

	type entry struct {
		paraID uint32
		agg    ValGroup
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, entry{paraID: id, agg: parachainAggregate(st, six, id)})
	}

	switch by {
	case ParaSortBackingPoints:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].agg.BackingPoints > entries[j].agg.BackingPoints })
	case ParaSortMvr:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].agg.Mvr > entries[j].agg.Mvr })
	}

	out := make([]uint32, len(entries))
	for i, e := range entries {
		out[i] = e.paraID
	}
	return out
}

// ScheduledParachainsBySession counts the session's parachains currently
// assigned to a validator group.
func ScheduledParachainsBySession(st *store.Store, six uint32) int {
	count := 0
	for _, id := range ParachainIDsBySession(st, six) {
		if p, ok := ParachainBySessionAndParaID(st, six, id); ok && p.Group != nil {
			count++
		}
	}
	return count
}
