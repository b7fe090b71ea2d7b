// Package selector holds the pure read side of the cache: every function
// computes presentation-ready aggregates from the record store without
// mutating it. Unknown sessions and entities yield zero values or empty
// sequences, never errors.
package selector

import (
	"github.com/turboflakes/onet-cache/pkg/store"
)

// SessionByIndex returns the stored session record.
func SessionByIndex(st *store.Store, six uint32) (store.Session, bool) {
	return st.Sessions.Get(six)
}

// SessionsByIDs resolves a session id window to the records present in the
// store, preserving input order and skipping unknown ids.
func SessionsByIDs(st *store.Store, ids []uint32) []store.Session {
	out := make([]store.Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := st.Sessions.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// MvrsBySession returns the per-validator missed-vote-ratio list stored
// under the given scope.
func MvrsBySession(st *store.Store, six uint32, scope store.Scope) []float64 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).Mvrs
	}
	return nil
}

// ValidityVotesBySession returns the per-validator vote-total list.
func ValidityVotesBySession(st *store.Store, six uint32, scope store.Scope) []uint32 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).ValidityVotes
	}
	return nil
}

// BackingPointsBySession returns the per-validator backing-points list.
func BackingPointsBySession(st *store.Store, six uint32, scope store.Scope) []uint64 {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).BackingPoints
	}
	return nil
}

// StashesBySession returns the accumulated authority address set.
func StashesBySession(st *store.Store, six uint32, scope store.Scope) []string {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).Stashes
	}
	return nil
}

// DisputesBySession returns the addresses flagged in disputes.
func DisputesBySession(st *store.Store, six uint32, scope store.Scope) []string {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).DisputeStashes
	}
	return nil
}

// LowGradesBySession returns the addresses graded F.
func LowGradesBySession(st *store.Store, six uint32, scope store.Scope) []string {
	if s, ok := st.Sessions.Get(six); ok {
		return s.Derived(scope).FGradeStashes
	}
	return nil
}
