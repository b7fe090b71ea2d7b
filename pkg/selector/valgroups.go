package selector

import (
	"sort"

	"github.com/turboflakes/onet-cache/pkg/metrics"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// ValGroup is a validator group's aggregate over one session, computed on
// read from the stored validator records. Groups are never persisted.
type ValGroup struct {
	GroupID       uint32            `json:"group_id"`
	Six           uint32            `json:"six"`
	Validators    []store.Validator `json:"-"`
	Mvr           float64           `json:"mvr"`
	ValidityVotes uint32            `json:"validity_votes"`
	BackingPoints uint64            `json:"backing_points"`
}

// ValidatorsBySessionAndGroupID returns the para-validators assigned to a
// group within a session, ordered by address for determinism.
func ValidatorsBySessionAndGroupID(st *store.Store, six, groupID uint32) []store.Validator {
	var out []store.Validator
	st.Validators.Range(func(key store.ValidatorKey, v store.Validator) bool {
		if key.Six != six {
			return true
		}
		if !v.IsAuth || !v.IsPara || v.Para == nil || v.Para.Group == nil || *v.Para.Group != groupID {
			return true
		}
		out = append(out, v)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// ValGroupBySessionAndGroupID aggregates a group's vote counts and backing
// points. The group MVR is computed over the summed votes, not averaged
// over members.
func ValGroupBySessionAndGroupID(st *store.Store, six, groupID uint32) (ValGroup, bool) {
	validators := ValidatorsBySessionAndGroupID(st, six, groupID)
	if len(validators) == 0 {
		return ValGroup{}, false
	}

	g := ValGroup{GroupID: groupID, Six: six, Validators: validators}
	var ev, iv, mv uint32
	for _, v := range validators {
		if v.ParaSummary != nil {
			ev += v.ParaSummary.ExplicitVotes
			iv += v.ParaSummary.ImplicitVotes
			mv += v.ParaSummary.MissedVotes
		}
		if v.Auth != nil {
			g.BackingPoints += metrics.BackingPoints(v.Auth.EndPoints, v.Auth.StartPoints, len(v.Auth.AuthoredBlocks))
		}
	}
	g.Mvr = metrics.Mvr(ev, iv, mv)
	g.ValidityVotes = ev + iv + mv
	return g, true
}

// GroupSortKey selects the aggregate a group listing is ordered by.
type GroupSortKey string

const (
	GroupSortDefault       GroupSortKey = ""
	GroupSortBackingPoints GroupSortKey = "backing_points"
	GroupSortMvr           GroupSortKey = "mvr"
)

// ValGroupIDsBySession returns the session's stored group id list.
func ValGroupIDsBySession(st *store.Store, six uint32, scope store.Scope) []uint32 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).GroupIDs
	}
	return nil
}

// ValGroupIDsBySessionSortedBy resolves each stored group id to its
// aggregate and orders descending by the chosen key. Ties keep the stored
// order (stable sort).
func ValGroupIDsBySessionSortedBy(st *store.Store, six uint32, scope store.Scope, by GroupSortKey) []uint32 {
	ids := ValGroupIDsBySession(st, six, scope)
	if by == GroupSortDefault || len(ids) == 0 {
		return ids
	}

	groups := make([]ValGroup, 0, len(ids))
	for _, id := range ids {
		g, _ := ValGroupBySessionAndGroupID(st, six, id)
		g.GroupID = id
		groups = append(groups, g)
	}

	switch by {
	case GroupSortBackingPoints:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].BackingPoints > groups[j].BackingPoints })
	case GroupSortMvr:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Mvr > groups[j].Mvr })
	}

	out := make([]uint32, len(groups))
	for i, g := range groups {
		out[i] = g.GroupID
	}
	return out
}

// ParaValidatorsBySessionGrouped returns the session's para-validators
// bucketed by its stored group id list.
func ParaValidatorsBySessionGrouped(st *store.Store, six uint32, scope store.Scope) [][]store.Validator {
	ids := ValGroupIDsBySession(st, six, scope)
	out := make([][]store.Validator, 0, len(ids))
	for _, id := range ids {
		out = append(out, ValidatorsBySessionAndGroupID(st, six, id))
	}
	return out
}
