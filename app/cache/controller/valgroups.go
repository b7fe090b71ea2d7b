package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/turboflakes/onet-cache/pkg/selector"
)

func groupSortKey(r *http.Request) selector.GroupSortKey {
	switch r.URL.Query().Get("sort_by") {
	case "mvr":
		return selector.GroupSortMvr
	case "backing_points":
		return selector.GroupSortBackingPoints
	default:
		return selector.GroupSortDefault
	}
}

// HandleValGroups returns the session's validator group ids, optionally
// ranked.
// GET /sessions/{index}/valgroups?sort_by=mvr|backing_points&scope=live|history
func (c *Controller) HandleValGroups(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}

	ids := selector.ValGroupIDsBySessionSortedBy(c.App.Store, six, scopeFromRequest(r), groupSortKey(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": six,
		"ids":     ids,
	})
}

// HandleValGroup returns one validator group aggregate with its members.
func (c *Controller) HandleValGroup(w http.ResponseWriter, r *http.Request) {
	six, ok := c.resolveSessionIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session index")
		return
	}
	groupID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	group, ok := selector.ValGroupBySessionAndGroupID(c.App.Store, six, uint32(groupID))
	if !ok {
		writeError(w, http.StatusNotFound, "group not cached")
		return
	}

	addresses := make([]string, 0, len(group.Validators))
	for _, v := range group.Validators {
		addresses = append(addresses, v.Address)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group":      group,
		"validators": addresses,
	})
}
