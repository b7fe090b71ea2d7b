// Package store holds the normalized in-memory record collections the
// reconciler writes and the selectors read. One collection per entity type,
// each keyed by that type's identity, plus a handful of cursors (current
// session, history window, latest blocks).
package store

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/turboflakes/onet-cache/pkg/onet"
)

type Store struct {
	Sessions   *Collection[uint32, Session]
	Validators *Collection[ValidatorKey, Validator]
	Parachains *Collection[ParachainKey, Parachain]
	Pools      *Collection[PoolKey, Pool]

	current atomic.Uint32

	best      atomic.Pointer[onet.Block]
	finalized atomic.Pointer[onet.Block]

	historyMu      sync.RWMutex
	historySession uint32
	historyRange   *[2]uint32
	historyIDs     []uint32
}

func New() *Store {
	return &Store{
		Sessions:   NewCollection[uint32, Session](),
		Validators: NewCollection[ValidatorKey, Validator](),
		Parachains: NewCollection[ParachainKey, Parachain](),
		Pools:      NewCollection[PoolKey, Pool](),
	}
}

// CurrentSession returns the current-session cursor. ok is false until a
// session flagged is_current has been received.
func (s *Store) CurrentSession() (uint32, bool) {
	six := s.current.Load()
	return six, six > 0
}

func (s *Store) SetCurrentSession(six uint32) {
	s.current.Store(six)
}

// SessionsAsc returns all session records sorted ascending by index.
func (s *Store) SessionsAsc() []Session {
	out := make([]Session, 0, s.Sessions.Len())
	s.Sessions.Range(func(_ uint32, v Session) bool {
		out = append(out, v)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Six < out[j].Six })
	return out
}

// BestBlock returns the latest best-block report, nil if none received.
func (s *Store) BestBlock() *onet.Block { return s.best.Load() }

// FinalizedBlock returns the latest finalized-block report, nil if none
// received. Its stats carry the current session's provisional points.
func (s *Store) FinalizedBlock() *onet.Block { return s.finalized.Load() }

func (s *Store) SetBlock(b onet.Block) {
	if b.IsFinalized {
		s.finalized.Store(&b)
		return
	}
	s.best.Store(&b)
}

// HistorySession returns the explicitly selected history session, 0 if none.
func (s *Store) HistorySession() uint32 {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	return s.historySession
}

func (s *Store) SetHistorySession(six uint32) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.historySession = six
}

// HistoryRange returns the explicit history range, ok false when the user
// has not set one. Defaulting belongs to the selectors.
func (s *Store) HistoryRange() (lo, hi uint32, ok bool) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	if s.historyRange == nil {
		return 0, 0, false
	}
	return s.historyRange[0], s.historyRange[1], true
}

func (s *Store) SetHistoryRange(lo, hi uint32) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.historyRange = &[2]uint32{lo, hi}
}

// HistoryIDs returns the explicit history id list, nil when not set.
func (s *Store) HistoryIDs() []uint32 {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	if s.historyIDs == nil {
		return nil
	}
	out := make([]uint32, len(s.historyIDs))
	copy(out, s.historyIDs)
	return out
}

func (s *Store) SetHistoryIDs(ids []uint32) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.historyIDs = ids
}
