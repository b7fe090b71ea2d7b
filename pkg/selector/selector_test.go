package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/store"
)

func groupPtr(g uint32) *uint32 { return &g }

func seedValidators(t *testing.T, st *store.Store, six uint32, vals []onet.Validator) {
	t.Helper()
	r := reconcile.New(st, zap.NewNop())
	r.Apply(context.Background(), reconcile.ValidatorsReceived{Session: six, Validators: vals})
}

func paraValidator(addr string, group uint32, summary onet.VoteSummary, backing uint64) onet.Validator {
	return onet.Validator{
		Address:     addr,
		IsAuth:      true,
		IsPara:      true,
		Para:        &onet.Para{Group: groupPtr(group)},
		ParaSummary: &summary,
		Auth:        &onet.AuthorityStats{StartPoints: 0, EndPoints: backing},
	}
}

func TestValGroupAggregates(t *testing.T) {
	st := store.New()
	seedValidators(t, st, 100, []onet.Validator{
		paraValidator("stash1", 1, onet.VoteSummary{ExplicitVotes: 8, ImplicitVotes: 1, MissedVotes: 1}, 100),
		paraValidator("stash2", 1, onet.VoteSummary{ExplicitVotes: 6, ImplicitVotes: 2, MissedVotes: 2}, 200),
		paraValidator("stash3", 2, onet.VoteSummary{ExplicitVotes: 10}, 500),
	})

	g, ok := ValGroupBySessionAndGroupID(st, 100, 1)
	require.True(t, ok)
	assert.Len(t, g.Validators, 2)
	// Group MVR over summed votes: 3 missed of 20.
	assert.InDelta(t, 0.15, g.Mvr, 1e-9)
	assert.Equal(t, uint32(20), g.ValidityVotes)
	assert.Equal(t, uint64(300), g.BackingPoints)

	_, ok = ValGroupBySessionAndGroupID(st, 100, 9)
	assert.False(t, ok)
}

func TestValGroupIDsBySessionSortedBy(t *testing.T) {
	st := store.New()
	seedValidators(t, st, 100, []onet.Validator{
		paraValidator("stash1", 1, onet.VoteSummary{ExplicitVotes: 8, MissedVotes: 2}, 100),
		paraValidator("stash2", 2, onet.VoteSummary{ExplicitVotes: 5, MissedVotes: 5}, 400),
		paraValidator("stash3", 3, onet.VoteSummary{ExplicitVotes: 10}, 250),
	})

	assert.Equal(t, []uint32{1, 2, 3}, ValGroupIDsBySession(st, 100, store.ScopeLive))
	assert.Equal(t, []uint32{2, 3, 1}, ValGroupIDsBySessionSortedBy(st, 100, store.ScopeLive, GroupSortBackingPoints))
	assert.Equal(t, []uint32{2, 1, 3}, ValGroupIDsBySessionSortedBy(st, 100, store.ScopeLive, GroupSortMvr))
	// Unknown session degrades to an empty sequence.
	assert.Empty(t, ValGroupIDsBySessionSortedBy(st, 999, store.ScopeLive, GroupSortMvr))
}

func seedPools(t *testing.T, st *store.Store, pools []onet.Pool) {
	t.Helper()
	r := reconcile.New(st, zap.NewNop())
	r.Apply(context.Background(), reconcile.PoolsReceived{Pools: pools})
}

func TestPoolIDsBySessionSortedBy(t *testing.T) {
	st := store.New()
	seedPools(t, st, []onet.Pool{
		{ID: 1, Session: 100, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.04}, Stats: &onet.PoolStats{Points: 10, MemberCounter: 5}},
		{ID: 2, Session: 100, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.09}, Stats: &onet.PoolStats{Points: 30, MemberCounter: 2}},
		{ID: 3, Session: 100, State: onet.PoolStateBlocked, NomStats: &onet.PoolNomStats{APR: 0.20}},
		{ID: 4, Session: 100, State: onet.PoolStateOpen},
	})

	// Blocked pool filtered out; pool 4 has no stats and keeps its slot.
	assert.Equal(t, []uint32{2, 1, 4}, PoolIDsBySessionSortedBy(st, 100, PoolSortAPR, ""))
	assert.Equal(t, []uint32{1, 2, 4}, PoolIDsBySessionSortedBy(st, 100, PoolSortMembers, ""))
	assert.Equal(t, []uint32{3}, PoolIDsBySessionSortedBy(st, 100, PoolSortAPR, onet.PoolStateBlocked))
	assert.Equal(t, []uint32{1, 2, 3, 4}, PoolIDsBySessionSortedBy(st, 100, PoolSortDefault, ""))
}

// TestPoolSortStability: two pools sharing the same APR preserve their
// relative input order.
func TestPoolSortStability(t *testing.T) {
	st := store.New()
	seedPools(t, st, []onet.Pool{
		{ID: 9, Session: 100, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.05}},
		{ID: 4, Session: 100, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.05}},
		{ID: 7, Session: 100, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.08}},
	})

	assert.Equal(t, []uint32{7, 9, 4}, PoolIDsBySessionSortedBy(st, 100, PoolSortAPR, ""))
}

func seedParachains(t *testing.T, st *store.Store, six uint32, paras []onet.Parachain) {
	t.Helper()
	r := reconcile.New(st, zap.NewNop())
	r.Apply(context.Background(), reconcile.ParachainsReceived{Session: six, Parachains: paras})
}

func TestParachainSelectors(t *testing.T) {
	st := store.New()
	seedParachains(t, st, 100, []onet.Parachain{
		{ParaID: 2000, Group: groupPtr(1)},
		{ParaID: 2004, Group: groupPtr(2)},
		{ParaID: 2006},
	})
	seedValidators(t, st, 100, []onet.Validator{
		paraValidator("stash1", 1, onet.VoteSummary{ExplicitVotes: 5, MissedVotes: 5}, 100),
		paraValidator("stash2", 2, onet.VoteSummary{ExplicitVotes: 10}, 400),
	})

	assert.Equal(t, []uint32{2000, 2004, 2006}, ParachainIDsBySession(st, 100))
	assert.Equal(t, 2, ScheduledParachainsBySession(st, 100))
	assert.Equal(t, []uint32{2004, 2000, 2006}, ParachainIDsBySessionSortedBy(st, 100, ParaSortBackingPoints))
	assert.Equal(t, []uint32{2000, 2004, 2006}, ParachainIDsBySessionSortedBy(st, 100, ParaSortMvr))
}

func TestGradesBySession(t *testing.T) {
	st := store.New()
	seedValidators(t, st, 100, []onet.Validator{
		paraValidator("stash1", 1, onet.VoteSummary{ExplicitVotes: 100}, 0),                 // ratio 1.0: A+
		paraValidator("stash2", 1, onet.VoteSummary{ExplicitVotes: 93, MissedVotes: 7}, 0),  // 0.93: B+
		paraValidator("stash3", 1, onet.VoteSummary{ExplicitVotes: 10, MissedVotes: 90}, 0), // 0.10: F
	})

	grades := GradesBySession(st, 100, store.ScopeLive)
	assert.Equal(t, 1, grades["A+"])
	assert.Equal(t, 1, grades["B+"])
	assert.Equal(t, 1, grades["F"])
	assert.Len(t, grades, 3)
}

func TestSessionHistoryDefaults(t *testing.T) {
	st := store.New()

	// Unknown current session: no window yet.
	assert.Nil(t, SessionHistoryRangeIDs(st))
	assert.Nil(t, SessionHistoryIDs(st))

	st.SetCurrentSession(100)

	lo, hi, ok := SessionHistoryRange(st)
	require.True(t, ok)
	assert.Equal(t, uint32(94), lo)
	assert.Equal(t, uint32(99), hi)
	assert.Equal(t, []uint32{94, 95, 96, 97, 98, 99}, SessionHistoryRangeIDs(st))
	assert.Equal(t, []uint32{94, 95, 96, 97, 98, 99}, SessionHistoryIDs(st))

	// Explicit settings win over the defaults.
	st.SetHistoryRange(90, 92)
	assert.Equal(t, []uint32{90, 91, 92}, SessionHistoryRangeIDs(st))

	st.SetHistoryIDs([]uint32{88, 99})
	assert.Equal(t, []uint32{88, 99}, SessionHistoryIDs(st))
}

func TestBuildSessionIDsArray(t *testing.T) {
	assert.Equal(t, []uint32{95, 96, 97, 98, 99}, BuildSessionIDsArray(99, 5))
	assert.Nil(t, BuildSessionIDsArray(0, 5))
	// Window larger than the chain history truncates instead of wrapping.
	assert.Equal(t, []uint32{1, 2, 3}, BuildSessionIDsArray(3, 10))
}

func TestEraPointsBySession(t *testing.T) {
	st := store.New()
	r := reconcile.New(st, zap.NewNop())
	ctx := context.Background()

	// Era 17 starts at session 98; session 100 is its third session.
	r.Apply(ctx, reconcile.SessionsReceived{Sessions: []onet.Session{
		{Six: 98, Eix: 17, Esix: 1, Stats: &onet.SessionStats{Points: 1000}},
		{Six: 99, Eix: 17, Esix: 2, Stats: &onet.SessionStats{Points: 2000}},
		{Six: 100, Eix: 17, Esix: 3, IsCurrent: true},
	}})
	r.Apply(ctx, reconcile.BlockReceived{Block: onet.Block{BlockNumber: 12345, IsFinalized: true, Stats: &onet.SessionStats{Points: 300}}})

	assert.Equal(t, uint64(3300), EraPointsBySession(st, 100))
	// Unknown session degrades to zero.
	assert.Equal(t, uint64(0), EraPointsBySession(st, 555))
}

func TestSeriesSelectors(t *testing.T) {
	st := store.New()
	r := reconcile.New(st, zap.NewNop())
	r.Apply(context.Background(), reconcile.SessionsReceived{Sessions: []onet.Session{
		{Six: 98, Stats: &onet.SessionStats{Points: 400, AuthoredBlocks: 10, Disputes: 1, ExplicitVotes: 9, MissedVotes: 1}},
		{Six: 99}, // no stats: skipped by the series
	}})

	ids := []uint32{98, 99}
	assert.Equal(t, []uint64{400}, TotalPointsBySessions(st, ids))
	assert.Equal(t, []uint32{10}, AuthoredBlocksBySessions(st, ids))
	assert.Equal(t, []uint32{1}, DisputesBySessions(st, ids))
	assert.Equal(t, []int64{200}, NetBackingPointsBySessions(st, ids))
	mvrs := MvrBySessions(st, ids)
	require.Len(t, mvrs, 1)
	assert.InDelta(t, 0.1, mvrs[0], 1e-9)
}
