// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/middleware"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/polls"
	"github.com/pollwise/pollwise/sessions"
)

type PollHandler struct {
	store    *polls.Store
	registry *sessions.Registry
}

func NewPollHandler(store *polls.Store, registry *sessions.Registry) *PollHandler {
	return &PollHandler{store: store, registry: registry}
}

// requireIdentity resolves and validates the caller for mutating operations.
// Session identities must be known and unexpired.
func (h *PollHandler) requireIdentity(r *http.Request) (identity.Identity, error) {
	id := middleware.IdentityFromRequest(r)
	if err := h.registry.Validate(r.Context(), id); err != nil {
		return identity.Identity{}, err
	}
	return id, nil
}

// Create handles POST /polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	creator, err := h.requireIdentity(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.store.Create(r.Context(), creator, polls.CreateInput{
		Question:                req.Question,
		Description:             req.Description,
		Options:                 req.Options,
		Tags:                    req.Tags,
		MultipleChoice:          req.MultipleChoice,
		Anonymous:               req.Anonymous,
		Public:                  req.Public,
		ShowResultsBeforeVoting: req.ShowResultsBeforeVoting,
		AllowComments:           req.AllowComments,
		ExpiresAt:               req.ExpiresAt,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// Get handles GET /polls/{id}
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// List handles GET /polls
// Query params: active, public, anonymous (true/false), q (free text over
// question+description), tags (comma separated, overlap), limit, offset.
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{
		Active:    boolParam(r, "active"),
		Public:    boolParam(r, "public"),
		Anonymous: boolParam(r, "anonymous"),
		Query:     r.URL.Query().Get("q"),
	}
	if tags := r.URL.Query().Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListPollsResponse{Polls: list})
}

// SetStatus handles POST /polls/{id}/status
func (h *PollHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	requester, err := h.requireIdentity(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req models.SetStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.store.SetStatus(r.Context(), pollID, req.Active, requester); err != nil {
		respondError(w, err)
		return
	}

	poll, err := h.store.Get(r.Context(), pollID)
	if err != nil {
		respondError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, poll)
}

// Delete handles DELETE /polls/{id}
// Cascades to the poll's votes.
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	requester, err := h.requireIdentity(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.Delete(r.Context(), pollID, requester); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func boolParam(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
