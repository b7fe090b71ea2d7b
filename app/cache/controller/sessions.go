package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/turboflakes/onet-cache/pkg/onet"
	"github.com/turboflakes/onet-cache/pkg/selector"
	"github.com/turboflakes/onet-cache/pkg/store"
)

// resolveSessionIndex maps the {index} path variable to a session index.
// "current" resolves against the current-session cursor.
func (c *Controller) resolveSessionIndex(r *http.Request) (uint32, bool) {
	raw := mux.Vars(r)["index"]
	if raw == onet.SessionCurrent {
		return c.App.Store.CurrentSession()
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint32(n), true
}

// sessionByIndex reads one session, fetching on demand when the cache has
// no record for it yet.
func (c *Controller) sessionByIndex(r *http.Request, six uint32) (store.Session, bool) {
	if session, ok := selector.SessionByIndex(c.App.Store, six); ok {
		return session, true
	}
	if err := c.App.Syncer.SyncSessionAt(r.Context(), six); err != nil {
		return store.Session{}, false
	}
	return selector.SessionByIndex(c.App.Store, six)
}

func scopeFromRequest(r *http.Request) store.Scope {
	if r.URL.Query().Get("scope") == "history" {
		return store.ScopeHistory
	}
	return store.ScopeLive
}

// HandleSessions returns a session window.
// GET /sessions?ids=94,95,96 for an explicit set, default is the cached
// history window ending one short of the current session.
func (c *Controller) HandleSessions(w http.ResponseWriter, r *http.Request) {
	var ids []uint32
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid session id: "+part)
				return
			}
			ids = append(ids, uint32(n))
		}
	} else {
		ids = selector.SessionHistoryIDs(c.App.Store)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ids":  ids,
		"data": selector.SessionsByIDs(c.App.Store, ids),
	})
}

// HandleSession returns one session record.
// GET /sessions/{index} where index is a session index or "current".
func (c *Controller) HandleSession(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	session, ok := c.sessionByIndex(r, six)
	if !ok {
		writeError(w, http.StatusNotFound, "session not cached")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleGrades returns the per-grade stash counts of one session.
// GET /sessions/{index}/grades?scope=live|history
func (c *Controller) HandleGrades(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": six,
		"grades":  selector.GradesBySession(c.App.Store, six, scopeFromRequest(r)),
	})
}

// HandleEraPoints returns the points accumulated by the session's era so
// far, provisional points of the live session included.
func (c *Controller) HandleEraPoints(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": six,
		"points":  selector.EraPointsBySession(c.App.Store, six),
	})
}

// HandleSeries returns the per-session chart series over the history window
// ending at the addressed session.
func (c *Controller) HandleSeries(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}

	count := uint32(6)
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = uint32(n)
	}

	ids := selector.BuildSessionIDsArray(six, count)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ids":                ids,
		"mvrs":               selector.MvrBySessions(c.App.Store, ids),
		"points":             selector.TotalPointsBySessions(c.App.Store, ids),
		"authored_blocks":    selector.AuthoredBlocksBySessions(c.App.Store, ids),
		"disputes":           selector.DisputesBySessions(c.App.Store, ids),
		"net_backing_points": selector.NetBackingPointsBySessions(c.App.Store, ids),
	})
}

// HandleBlocks returns the best and finalized block singletons.
func (c *Controller) HandleBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"best":      c.App.Store.BestBlock(),
		"finalized": c.App.Store.FinalizedBlock(),
	})
}
