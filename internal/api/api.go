package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rs/cors"

	"gridsim/internal/simulator"
)

// API serves engine introspection endpoints.
type API struct {
	engine *simulator.Engine
}

func New(engine *simulator.Engine) *API {
	return &API{engine: engine}
}

// GraphHandler serves the dependency graph as nodes, edges, and stats.
func (a *API) GraphHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(a.engine.Graph().View()); err != nil {
		log.Printf("api: encode graph: %v", err)
	}
}

// StateHandler serves the engine's current run progress.
func (a *API) StateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(a.engine.State()); err != nil {
		log.Printf("api: encode state: %v", err)
	}
}

// Router assembles the HTTP surface. The WebSocket handler is mounted at
// /ws when given; everything is wrapped with permissive CORS so browser
// visualization clients can consume the API cross-origin.
func Router(engine *simulator.Engine, wsHandler http.Handler) http.Handler {
	a := New(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/graph", a.GraphHandler)
	mux.HandleFunc("/state", a.StateHandler)
	if wsHandler != nil {
		mux.Handle("/ws", wsHandler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}
