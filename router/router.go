// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/pollwise/pollwise/audit"
	"github.com/pollwise/pollwise/cliparse"
	"github.com/pollwise/pollwise/entitlements"
	"github.com/pollwise/pollwise/handlers"
	"github.com/pollwise/pollwise/middleware"
	"github.com/pollwise/pollwise/polls"
	"github.com/pollwise/pollwise/results"
	"github.com/pollwise/pollwise/sessions"
	"github.com/pollwise/pollwise/votes"
)

// NewRouter wires the engine: every component is constructed once here and
// handed to the handlers that need it. No globals, no service singletons.
func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	auditLog := audit.NewLog(db)
	checker := entitlements.AllowAll{}
	registry := sessions.NewRegistry(db, cfg.SessionTTL)
	store := polls.NewStore(db, auditLog, checker)
	ledger := votes.NewLedger(db, store, auditLog, checker)
	projector := results.NewProjector(db, store, ledger)

	sessionHandler := handlers.NewSessionHandler(registry)
	pollHandler := handlers.NewPollHandler(store, registry)
	voteHandler := handlers.NewVoteHandler(ledger, registry)
	resultsHandler := handlers.NewResultsHandler(projector, store)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Anonymous identity
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.Resolve))

	// Poll lifecycle
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.Create))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.List))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.Get))
	mux.HandleFunc("POST /polls/{id}/status", middleware.WithLogging(pollHandler.SetStatus))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.Delete))

	// Voting
	mux.HandleFunc("POST /polls/{id}/votes", middleware.WithLogging(voteHandler.Cast))
	mux.HandleFunc("GET /polls/{id}/votes/me", middleware.WithLogging(voteHandler.MyVote))

	// Results
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{id}/analytics", middleware.WithLogging(resultsHandler.GetAnalytics))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollwise API v1"))
	})

	return mux
}
