package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/selector"
)

func paraSortKey(r *http.Request) selector.ParaSortKey {
	switch r.URL.Query().Get("sort_by") {
	case "mvr":
		return selector.ParaSortMvr
	case "backing_points":
		return selector.ParaSortBackingPoints
	default:
		return selector.ParaSortDefault
	}
}

// HandleParachains returns one session's parachain ids, optionally ranked
// by their assigned group's aggregate, plus the scheduled-core count.
// GET /sessions/{index}/parachains?sort_by=mvr|backing_points
func (c *Controller) HandleParachains(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}

	// Demand-fetch an uncached historical session before reading.
	if ids := selector.ParachainIDsBySession(c.App.Store, six); len(ids) == 0 {
		_ = c.App.Syncer.SyncParachains(r.Context(), onet.ParachainsQuery{Session: six})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   six,
		"ids":       selector.ParachainIDsBySessionSortedBy(c.App.Store, six, paraSortKey(r)),
		"scheduled": selector.ScheduledParachainsBySession(c.App.Store, six),
	})
}

// HandleParachain returns one parachain record.
func (c *Controller) HandleParachain(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	paraID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parachain id")
		return
	}

	para, ok := selector.ParachainBySessionAndParaID(c.App.Store, six, uint32(paraID))
	if !ok {
		writeError(w, http.StatusNotFound, "parachain not cached")
		return
	}
	writeJSON(w, http.StatusOK, para)
}
