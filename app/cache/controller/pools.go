package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/selector"
)

func poolSortKey(r *http.Request) selector.PoolSortKey {
	switch r.URL.Query().Get("sort_by") {
	case "apr":
		return selector.PoolSortAPR
	case "members":
		return selector.PoolSortMembers
	case "points":
		return selector.PoolSortPoints
	default:
		return selector.PoolSortDefault
	}
}

// HandlePools returns one session's pool ids, filtered by lifecycle state
// and optionally ranked.
// GET /sessions/{index}/pools?sort_by=apr|members|points&state=Open|Blocked|Destroying
func (c *Controller) HandlePools(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}

	if ids := selector.PoolIDsBySession(c.App.Store, six); len(ids) == 0 {
		_ = c.App.Syncer.SyncPools(r.Context(), onet.PoolsQuery{Session: six})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": six,
		"ids":     selector.PoolIDsBySessionSortedBy(c.App.Store, six, poolSortKey(r), r.URL.Query().Get("state")),
	})
}

// HandlePool returns one pool record, fetching it on demand when missing.
func (c *Controller) HandlePool(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	poolID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || poolID == 0 {
		writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}

	pool, ok := selector.PoolBySessionAndPoolID(c.App.Store, six, uint32(poolID))
	if !ok {
		// Single-pool fetch: merged as a record only, never aggregated.
		if err := c.App.Syncer.SyncPools(r.Context(), onet.PoolsQuery{Session: six, Pool: uint32(poolID)}); err != nil {
			writeError(w, http.StatusNotFound, "pool not cached")
			return
		}
		pool, ok = selector.PoolBySessionAndPoolID(c.App.Store, six, uint32(poolID))
		if !ok {
			writeError(w, http.StatusNotFound, "pool not cached")
			return
		}
	}
	writeJSON(w, http.StatusOK, pool)
}
