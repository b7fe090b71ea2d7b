package selector

import (
	"sort"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// PoolBySessionAndPoolID returns the stored pool record.
func PoolBySessionAndPoolID(st *store.Store, six, poolID uint32) (store.Pool, bool) {
	return st.Pools.Get(store.PoolKey{Six: six, ID: poolID})
}

// PoolIDsBySession returns the session's stored pool id list.
func PoolIDsBySession(st *store.Store, six uint32) []uint32 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.PoolIDs
	}
	return nil
}

// PoolSortKey selects the numeric field a pool listing is ordered by.
type PoolSortKey string

const (
	PoolSortDefault PoolSortKey = ""
	PoolSortAPR     PoolSortKey = "apr"
	PoolSortMembers PoolSortKey = "members"
	PoolSortPoints  PoolSortKey = "points"
)

// PoolIDsBySessionSortedBy filters the session's pools by lifecycle state
// (Open when stateFilter is empty) and orders descending by the chosen
// field. Pools missing the stat block are incomparable: such pairs keep
// their input order, and ties are stable.
func PoolIDsBySessionSortedBy(st *store.Store, six uint32, by PoolSortKey, stateFilter string) []uint32 {
	if stateFilter == "" {
		stateFilter = onet.PoolStateOpen
	}

	ids := PoolIDsBySession(st, six)
	if by == PoolSortDefault {
		return ids
	}

	pools := make([]store.Pool, 0, len(ids))
	for _, id := range ids {
		if p, ok := PoolBySessionAndPoolID(st, six, id); ok && p.State == stateFilter {
			pools = append(pools, p)
		}
	}

	switch by {
	case PoolSortAPR:
		sort.SliceStable(pools, func(i, j int) bool {
			if pools[i].NomStats == nil || pools[j].NomStats == nil {
				return false
			}
			return pools[i].NomStats.APR > pools[j].NomStats.APR
		})
	case PoolSortMembers:
		sort.SliceStable(pools, func(i, j int) bool {
			if pools[i].Stats == nil || pools[j].Stats == nil {
				return false
			}
			return pools[i].Stats.MemberCounter > pools[j].Stats.MemberCounter
		})
	case PoolSortPoints:
		sort.SliceStable(pools, func(i, j int) bool {
			if pools[i].Stats == nil || pools[j].Stats == nil {
				return false
			}
			return pools[i].Stats.Points > pools[j].Stats.Points
		})
	}

	out := make([]uint32, len(pools))
	for i, p := range pools {
		out[i] = p.ID
	}
	return out
}
