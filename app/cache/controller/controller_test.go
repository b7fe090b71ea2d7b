package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/turboflakes/onet-cache/app/cache/types"
	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/reconcile"
	"github.com/turboflakes/onet-cache/pkg/store"
	"github.com/turboflakes/onet-cache/pkg/syncer"
)

// newTestApp wires a controller against an in-memory store and an httptest
// API stub serving the handler.
func newTestApp(t *testing.T, apiHandler http.HandlerFunc) (*types.App, *mux.Router) {
	t.Helper()

	if apiHandler == nil {
		apiHandler = func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }
	}
	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	st := store.New()
	logger := zaptest.NewLogger(t)
	rec := reconcile.New(st, logger)
	sync := syncer.New(syncer.Opts{
		Client:     onet.NewWithOpts(onet.Opts{Endpoints: []string{api.URL}}),
		Reconciler: rec,
		Store:      st,
		Logger:     logger,
	})
	t.Cleanup(sync.Stop)

	app := &types.App{
		Store:      st,
		Reconciler: rec,
		Syncer:     sync,
		Logger:     logger,
	}
	router, err := NewController(app).NewRouter()
	require.NoError(t, err)
	return app, router
}

func doGet(t *testing.T, router *mux.Router, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func groupPtr(g uint32) *uint32 { return &g }

// seedSession merges a current session plus a para-validator batch so the
// derived lists exist.
func seedSession(t *testing.T, app *types.App, six uint32) {
	t.Helper()
	ctx := context.Background()
	app.Reconciler.Apply(ctx, reconcile.SessionReceived{Session: onet.Session{
		Six: six, Eix: 20, Esix: 3, IsCurrent: true,
		Stats: &onet.SessionStats{Points: 1000, AuthoredBlocks: 10, ExplicitVotes: 80, ImplicitVotes: 10, MissedVotes: 10},
	}})
	app.Reconciler.Apply(ctx, reconcile.ValidatorsReceived{
		Session: six,
		Scope:   store.ScopeLive,
		Validators: []onet.Validator{
			{
				Address: "stash-A", IsAuth: true, IsPara: true,
				Auth:        &onet.AuthorityStats{StartPoints: 100, EndPoints: 400, AuthoredBlocks: []uint64{11}},
				Para:        &onet.Para{Group: groupPtr(1)},
				ParaSummary: &onet.VoteSummary{ExplicitVotes: 10, ImplicitVotes: 0, MissedVotes: 0},
			},
			{
				Address: "stash-B", IsAuth: true, IsPara: true,
				Auth:        &onet.AuthorityStats{StartPoints: 100, EndPoints: 200},
				Para:        &onet.Para{Group: groupPtr(2)},
				ParaSummary: &onet.VoteSummary{ExplicitVotes: 2, ImplicitVotes: 0, MissedVotes: 8},
			},
		},
	})
}

func TestHandleHealth(t *testing.T) {
	app, router := newTestApp(t, nil)

	rr, body := doGet(t, router, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "warming", body["status"])

	seedSession(t, app, 100)
	rr, body = doGet(t, router, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(100), body["current_session"])
}

func TestHandleSession_Current(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)

	rr, body := doGet(t, router, "/sessions/current")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(100), body["six"])
	assert.Equal(t, true, body["is_current"])
	// Derived MVR from the session stats: 10/(80+10+10).
	assert.InDelta(t, 0.1, body["mvr"].(float64), 1e-9)
}

func TestHandleSession_DemandFetch(t *testing.T) {
	_, router := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/99", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(onet.Session{Six: 99, Eix: 19})
	})

	rr, body := doGet(t, router, "/sessions/99")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(99), body["six"])
}

func TestHandleSession_NotCached(t *testing.T) {
	_, router := newTestApp(t, nil)

	rr, _ := doGet(t, router, "/sessions/42")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = doGet(t, router, "/sessions/bogus")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// "current" without a cursor resolves nothing.
	rr, _ = doGet(t, router, "/sessions/current")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGrades(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)

	rr, body := doGet(t, router, "/sessions/current/grades")
	require.Equal(t, http.StatusOK, rr.Code)

	grades := body["grades"].(map[string]interface{})
	// stash-A is perfect (A+), stash-B misses 80% (F).
	assert.Equal(t, float64(1), grades["A+"])
	assert.Equal(t, float64(1), grades["F"])
}

func TestHandleValGroups_Sorted(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)

	// Group 1 carries more backing points than group 2.
	rr, body := doGet(t, router, "/sessions/100/valgroups?sort_by=backing_points")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, body["ids"].([]interface{}))

	// Group 2 has the worse (higher) MVR.
	rr, body = doGet(t, router, "/sessions/100/valgroups?sort_by=mvr")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{float64(2), float64(1)}, body["ids"].([]interface{}))
}

func TestHandleValGroup(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)

	rr, body := doGet(t, router, "/sessions/100/valgroups/1")
	require.Equal(t, http.StatusOK, rr.Code)
	group := body["group"].(map[string]interface{})
	assert.Equal(t, float64(0), group["mvr"])
	assert.Equal(t, []interface{}{"stash-A"}, body["validators"].([]interface{}))

	rr, _ = doGet(t, router, "/sessions/100/valgroups/9")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleParachains(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)
	app.Reconciler.Apply(context.Background(), reconcile.ParachainsReceived{
		Session: 100,
		Parachains: []onet.Parachain{
			{ParaID: 2004, Group: groupPtr(1)},
			{ParaID: 2006, Group: groupPtr(2)},
			{ParaID: 2008},
		},
	})

	rr, body := doGet(t, router, "/sessions/100/parachains")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, body["ids"].([]interface{}), 3)
	assert.Equal(t, float64(2), body["scheduled"])

	rr, body = doGet(t, router, "/sessions/100/parachains/2004")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2004), body["pid"])
}

func TestHandlePools(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)
	app.Reconciler.Apply(context.Background(), reconcile.PoolsReceived{
		Session: 100,
		Pools: []onet.Pool{
			{ID: 1, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.05}},
			{ID: 2, State: onet.PoolStateOpen, NomStats: &onet.PoolNomStats{APR: 0.11}},
			{ID: 3, State: onet.PoolStateBlocked, NomStats: &onet.PoolNomStats{APR: 0.20}},
		},
	})

	// Default state filter keeps Open pools only.
	rr, body := doGet(t, router, "/sessions/100/pools?sort_by=apr")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{float64(2), float64(1)}, body["ids"].([]interface{}))

	rr, body = doGet(t, router, "/sessions/100/pools?sort_by=apr&state=Blocked")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{float64(3)}, body["ids"].([]interface{}))

	rr, body = doGet(t, router, "/sessions/100/pools/2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), body["id"])
}

func TestHandleSeries(t *testing.T) {
	app, router := newTestApp(t, nil)
	ctx := context.Background()
	for six := uint32(98); six <= 100; six++ {
		app.Reconciler.Apply(ctx, reconcile.SessionReceived{Session: onet.Session{
			Six:   six,
			Stats: &onet.SessionStats{Points: uint64(six) * 10, ExplicitVotes: 90, MissedVotes: 10},
		}})
	}

	rr, body := doGet(t, router, "/sessions/100/series?count=3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{float64(98), float64(99), float64(100)}, body["ids"].([]interface{}))
	points := body["points"].([]interface{})
	require.Len(t, points, 3)
	assert.Equal(t, float64(1000), points[2])
}

func TestHandleBlocks(t *testing.T) {
	app, router := newTestApp(t, nil)
	app.Reconciler.Apply(context.Background(), reconcile.BlockReceived{
		Block: onet.Block{BlockNumber: 123456, IsFinalized: true},
	})

	rr, body := doGet(t, router, "/blocks")
	require.Equal(t, http.StatusOK, rr.Code)
	finalized := body["finalized"].(map[string]interface{})
	assert.Equal(t, float64(123456), finalized["block_number"])
	assert.Nil(t, body["best"])
}

func TestWithCORS(t *testing.T) {
	handler := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/sessions/current", nil)
	req.Header.Set("Origin", "https://apps.turboflakes.io")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://apps.turboflakes.io", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	// Plain GET without an Origin falls back to the wildcard.
	req = httptest.NewRequest(http.MethodGet, "/sessions/current", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleSessions_ExplicitIDs(t *testing.T) {
	app, router := newTestApp(t, nil)
	seedSession(t, app, 100)

	rr, body := doGet(t, router, "/sessions?ids=100,42")
	require.Equal(t, http.StatusOK, rr.Code)
	// Unknown ids are skipped, not errored.
	assert.Len(t, body["data"].([]interface{}), 1)

	rr, _ = doGet(t, router, "/sessions?ids=100,bogus")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleEraPoints(t *testing.T) {
	app, router := newTestApp(t, nil)
	ctx := context.Background()
	// Sessions 98..100 belong to era 20 as esix 1..3; era points sum the
	// prior sessions in the era.
	for i, six := range []uint32{98, 99} {
		app.Reconciler.Apply(ctx, reconcile.SessionReceived{Session: onet.Session{
			Six: six, Eix: 20, Esix: uint32(i + 1),
			Stats: &onet.SessionStats{Points: 500},
		}})
	}
	app.Reconciler.Apply(ctx, reconcile.SessionReceived{Session: onet.Session{
		Six: 100, Eix: 20, Esix: 3, IsCurrent: true,
	}})
	app.Reconciler.Apply(ctx, reconcile.BlockReceived{Block: onet.Block{
		BlockNumber: 9, IsFinalized: true, Stats: &onet.SessionStats{Points: 250},
	}})

	rr, body := doGet(t, router, "/sessions/current/era_points")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1250), body["points"])
}
