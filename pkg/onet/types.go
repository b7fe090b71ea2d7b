// Package onet is the HTTP client for the ONE-T indexing API. Wire types
// mirror the upstream JSON short names (ev/iv/mv vote counts, pt points,
// ab authored blocks).
package onet

import "encoding/json"

// SessionStats is the aggregate stats block attached to sessions and blocks
// when requested with show_stats.
type SessionStats struct {
	AuthoredBlocks uint32 `json:"ab"`
	Points         uint64 `json:"pt"`
	ExplicitVotes  uint32 `json:"ev"`
	ImplicitVotes  uint32 `json:"iv"`
	MissedVotes    uint32 `json:"mv"`
	Disputes       uint32 `json:"di"`
}

// Session is one validator-set epoch subdivision, identified by the
// monotonically increasing index six. Eix is the era index, Esix the
// session index within its era (1-based).
type Session struct {
	Six       uint32          `json:"six"`
	Eix       uint32          `json:"eix"`
	Esix      uint32          `json:"esix"`
	IsCurrent bool            `json:"is_current"`
	Stats     *SessionStats   `json:"stats,omitempty"`
	NetStats  json.RawMessage `json:"netstats,omitempty"`
}

// VoteSummary is a validator's para vote breakdown for one session.
type VoteSummary struct {
	ExplicitVotes uint32 `json:"ev"`
	ImplicitVotes uint32 `json:"iv"`
	MissedVotes   uint32 `json:"mv"`
}

// Total returns the number of validity votes the summary accounts for.
func (s VoteSummary) Total() uint32 {
	return s.ExplicitVotes + s.ImplicitVotes + s.MissedVotes
}

// AuthorityStats carries a validator's era points at the session boundary
// and the blocks it authored within the session.
type AuthorityStats struct {
	StartPoints    uint64   `json:"sp"`
	EndPoints      uint64   `json:"ep"`
	AuthoredBlocks []uint64 `json:"ab"`
}

// Para describes a validator's parachain assignment. Group is nil when the
// validator is not assigned to a core. Disputes is present only when the
// validator was flagged in a dispute.
type Para struct {
	Group    *uint32           `json:"group,omitempty"`
	ParaID   uint32            `json:"pid,omitempty"`
	Disputes []json.RawMessage `json:"disputes,omitempty"`
}

type Validator struct {
	Address     string          `json:"address"`
	Session     uint32          `json:"session,omitempty"`
	IsAuth      bool            `json:"is_auth"`
	IsPara      bool            `json:"is_para"`
	Auth        *AuthorityStats `json:"auth,omitempty"`
	Para        *Para           `json:"para,omitempty"`
	ParaSummary *VoteSummary    `json:"para_summary,omitempty"`
	Profile     json.RawMessage `json:"profile,omitempty"`
}

type Parachain struct {
	ParaID  uint32  `json:"pid"`
	Session uint32  `json:"session,omitempty"`
	Group   *uint32 `json:"group"`
}

// Pool lifecycle states as reported by the API.
const (
	PoolStateOpen       = "Open"
	PoolStateBlocked    = "Blocked"
	PoolStateDestroying = "Destroying"
)

type PoolStats struct {
	Points        uint64 `json:"points"`
	MemberCounter uint32 `json:"member_counter"`
}

type PoolNomStats struct {
	APR float64 `json:"apr"`
}

type Pool struct {
	ID       uint32        `json:"id"`
	Session  uint32        `json:"session,omitempty"`
	State    string        `json:"state"`
	Stats    *PoolStats    `json:"stats,omitempty"`
	NomStats *PoolNomStats `json:"nomstats,omitempty"`
}

// Block is a best or finalized block report. Stats carries the provisional
// session stats as of that block.
type Block struct {
	BlockNumber uint64        `json:"block_number"`
	IsFinalized bool          `json:"is_finalized"`
	Stats       *SessionStats `json:"stats,omitempty"`
}

// ListEnvelope is the `{"session": n, "data": [...]}` shape list endpoints
// respond with. Session is set when the whole batch belongs to one session
// and the individual records omit theirs.
type ListEnvelope[T any] struct {
	Session uint32 `json:"session,omitempty"`
	Data    []T    `json:"data"`
}
