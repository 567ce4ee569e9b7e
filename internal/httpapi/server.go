// Package httpapi exposes the engine's producer and consumer surfaces
// over JSON HTTP for the external collaborators (chat orchestrator,
// budgeting routine, dashboards).
package httpapi

import (
	"net/http"
	"time"

	"finpulse/internal/engine"
	"finpulse/internal/statestore"
)

type Server struct {
	engine *engine.Engine
	store  *statestore.Store
}

// NewServer builds the route table and returns a configured http.Server.
func NewServer(addr string, eng *engine.Engine, store *statestore.Store) *http.Server {
	s := &Server{engine: eng, store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/limit", s.handleLimit)
	mux.HandleFunc("/limit/status", s.handleLimitStatus)
	mux.HandleFunc("/limit/projection", s.handleProjection)
	mux.HandleFunc("/limit/risk", s.handleRisk)
	mux.HandleFunc("/suggestions", s.handleSuggestions)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/budget", s.handleBudget)
	mux.HandleFunc("/budget/suggest", s.handleBudgetSuggest)
	mux.HandleFunc("/analytics", s.handleAnalytics)
	mux.HandleFunc("/admin/reset", s.handleReset)

	return &http.Server{
		Addr:           addr,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}
