package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/turboflakes/onet-cache/app/cache/types"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods("GET")

	r.HandleFunc("/sessions", c.HandleSessions).Methods("GET")
	r.HandleFunc("/sessions/{index}", c.HandleSession).Methods("GET")
	r.HandleFunc("/sessions/{index}/grades", c.HandleGrades).Methods("GET")
	r.HandleFunc("/sessions/{index}/era_points", c.HandleEraPoints).Methods("GET")
	r.HandleFunc("/sessions/{index}/series", c.HandleSeries).Methods("GET")

	r.HandleFunc("/sessions/{index}/valgroups", c.HandleValGroups).Methods("GET")
	r.HandleFunc("/sessions/{index}/valgroups/{id}", c.HandleValGroup).Methods("GET")
	r.HandleFunc("/sessions/{index}/parachains", c.HandleParachains).Methods("GET")
	r.HandleFunc("/sessions/{index}/parachains/{id}", c.HandleParachain).Methods("GET")
	r.HandleFunc("/sessions/{index}/pools", c.HandlePools).Methods("GET")
	r.HandleFunc("/sessions/{index}/pools/{id}", c.HandlePool).Methods("GET")

	r.HandleFunc("/blocks", c.HandleBlocks).Methods("GET")

	r.HandleFunc("/ws", c.HandleWebSocket)

	return r, nil
}

// WithCORS wraps a handler with permissive CORS headers for browser clients.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
