package store

import (
	"encoding/json"
	"time"

	"github.com/turboflakes/onet-cache/pkg/onet"
)

// DerivedStats are the per-session lists the reconciler computes wholesale
// from a validators batch. Every list except Stashes is replaced on each
// contributing update; Stashes only ever grows within a session.
type DerivedStats struct {
	GroupIDs       []uint32 `json:"group_ids,omitempty"`
	Mvrs           []float64 `json:"mvrs,omitempty"`
	ValidityVotes  []uint32 `json:"validity_votes,omitempty"`
	BackingPoints  []uint64 `json:"backing_points,omitempty"`
	Stashes        []string `json:"stashes,omitempty"`
	DisputeStashes []string `json:"dispute_stashes,omitempty"`
	FGradeStashes  []string `json:"f_grade_stashes,omitempty"`
}

// Empty reports whether no derivation pass has written to this namespace.
func (d DerivedStats) Empty() bool {
	return d.GroupIDs == nil && d.Mvrs == nil && d.ValidityVotes == nil &&
		d.BackingPoints == nil && d.Stashes == nil && d.DisputeStashes == nil &&
		d.FGradeStashes == nil
}

// Session is the canonical session record. The same record accumulates two
// derived namespaces: Live, fed by frequent single-session updates, and
// History, fed by wide multi-session batch queries, so neither clobbers
// the other.
type Session struct {
	Six       uint32          `json:"six"`
	Eix       uint32          `json:"eix,omitempty"`
	Esix      uint32          `json:"esix,omitempty"`
	IsCurrent bool            `json:"is_current,omitempty"`
	Stats     *onet.SessionStats `json:"stats,omitempty"`
	NetStats  json.RawMessage `json:"netstats,omitempty"`

	// Mvr is derived from Stats at merge time.
	Mvr *float64 `json:"mvr,omitempty"`

	Live    DerivedStats `json:"live,omitempty"`
	History DerivedStats `json:"history,omitempty"`

	ParachainIDs []uint32 `json:"parachain_ids,omitempty"`
	PoolIDs      []uint32 `json:"pool_ids,omitempty"`

	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// Derived returns the namespace for the given scope.
func (s *Session) Derived(scope Scope) *DerivedStats {
	if scope == ScopeHistory {
		return &s.History
	}
	return &s.Live
}

// Scope selects which derived namespace a validators batch writes to:
// live single-session tracking, or a wide historical batch.
type Scope int

const (
	ScopeLive Scope = iota
	ScopeHistory
)

func (s Scope) String() string {
	if s == ScopeHistory {
		return "history"
	}
	return "live"
}

// ValidatorKey is the compound identity of a per-session validator record.
type ValidatorKey struct {
	Six     uint32
	Address string
}

type Validator struct {
	onet.Validator
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// ParachainKey is the compound identity of a per-session parachain record.
type ParachainKey struct {
	Six    uint32
	ParaID uint32
}

type Parachain struct {
	onet.Parachain
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// PoolKey is the compound identity of a per-session pool record.
type PoolKey struct {
	Six uint32
	ID  uint32
}

type Pool struct {
	onet.Pool
	ReceivedAt time.Time `json:"received_at,omitempty"`
}
