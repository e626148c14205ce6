// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/middleware"
	"github.com/pollwise/pollwise/polls"
	"github.com/pollwise/pollwise/results"
)

type ResultsHandler struct {
	projector *results.Projector
	store     *polls.Store
}

func NewResultsHandler(projector *results.Projector, store *polls.Store) *ResultsHandler {
	return &ResultsHandler{projector: projector, store: store}
}

// GetResults handles GET /polls/{id}/results
// The requester identity (if any) decides whether anonymous-poll numbers are
// masked; no session validation is needed for reads.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	requester := middleware.IdentityFromRequest(r)
	view, err := h.projector.Results(r.Context(), pollID, requester)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetAnalytics handles GET /polls/{id}/analytics
// Analytics expose real numbers, so only the poll's creator may read them.
func (h *ResultsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := h.store.Get(r.Context(), pollID)
	if err != nil {
		respondError(w, err)
		return
	}

	requester := middleware.IdentityFromRequest(r)
	if requester.IsZero() || requester.Key() != poll.CreatorKey {
		respondError(w, fmt.Errorf("%w: analytics are creator-only", apperr.ErrForbidden))
		return
	}

	analytics, err := h.projector.Analytics(r.Context(), pollID)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, analytics)
}
