package reconcile

import (
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// Event is the tagged union of everything the reconciler can merge. Bulk
// fetch results and single push updates arrive as the same event kinds, so
// both paths share one reconciliation switch.
type Event interface {
	isEvent()
}

// SessionsReceived carries a bulk sessions batch.
type SessionsReceived struct {
	Sessions []onet.Session
}

// SessionReceived carries a single session, from a by-index fetch or the
// new-session push topic.
type SessionReceived struct {
	Session onet.Session
}

// ValidatorsReceived carries a validators batch. Session is the envelope
// session id, used for records that omit their own. Scope decides which
// derived namespace on the session record the batch contributes to.
type ValidatorsReceived struct {
	Validators []onet.Validator
	Session    uint32
	Scope      store.Scope
}

// ParachainsReceived carries the parachains assigned in one session.
type ParachainsReceived struct {
	Parachains []onet.Parachain
	Session    uint32
}

// PoolsReceived carries a nomination-pools batch. SinglePool marks batches
// from a one-pool query, which skip session-level aggregation.
type PoolsReceived struct {
	Pools      []onet.Pool
	Session    uint32
	SinglePool bool
}

// BlockReceived carries a best or finalized block push report.
type BlockReceived struct {
	Block onet.Block
}

func (SessionsReceived) isEvent()   {}
func (SessionReceived) isEvent()    {}
func (ValidatorsReceived) isEvent() {}
func (ParachainsReceived) isEvent() {}
func (PoolsReceived) isEvent()      {}
func (BlockReceived) isEvent()      {}
