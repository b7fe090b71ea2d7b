package controller

import (
	"net/http"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}

	if current, ok := c.App.Store.CurrentSession(); ok {
		status["current_session"] = current
	} else {
		status["status"] = "warming"
	}
	if b := c.App.Store.FinalizedBlock(); b != nil {
		status["finalized_block"] = b.BlockNumber
	}

	if c.App.RedisClient != nil {
		if err := c.App.RedisClient.Health(r.Context()); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, status)
}
