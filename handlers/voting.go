// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/pollwise/pollwise/middleware"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/sessions"
	"github.com/pollwise/pollwise/votes"
)

type VoteHandler struct {
	ledger   *votes.Ledger
	registry *sessions.Registry
}

func NewVoteHandler(ledger *votes.Ledger, registry *sessions.Registry) *VoteHandler {
	return &VoteHandler{ledger: ledger, registry: registry}
}

// Cast handles POST /polls/{id}/votes
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	voter := middleware.IdentityFromRequest(r)
	if err := h.registry.Validate(r.Context(), voter); err != nil {
		respondError(w, err)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	receipt, err := h.ledger.Cast(r.Context(), pollID, voter, req.OptionIDs, req.Anonymous)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, receipt)
}

// MyVote handles GET /polls/{id}/votes/me
// Lets a client render "you already voted" state.
func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	voter := middleware.IdentityFromRequest(r)
	vote, err := h.ledger.VoteFor(r.Context(), pollID, voter)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyVoteResponse{
		Voted: vote != nil,
		Vote:  vote,
	})
}
