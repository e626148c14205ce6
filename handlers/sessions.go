// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/pollwise/pollwise/middleware"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/sessions"
)

type SessionHandler struct {
	registry *sessions.Registry
}

func NewSessionHandler(registry *sessions.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Resolve handles POST /sessions
// Refreshes the handle in X-Session-Handle when valid, otherwise mints a new
// anonymous session. The body is optional client metadata.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && err != io.EOF {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	locale := req.Locale
	if locale == "" {
		// First language of Accept-Language is a good enough analytics signal.
		if accept := r.Header.Get("Accept-Language"); accept != "" {
			locale = strings.TrimSpace(strings.SplitN(accept, ",", 2)[0])
		}
	}

	meta := models.ClientMetadata{
		UserAgent: r.UserAgent(),
		Locale:    locale,
		Region:    req.Region,
	}

	existing := r.Header.Get("X-Session-Handle")
	session, created, err := h.registry.ResolveOrCreate(r.Context(), existing, meta)
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.ResolveSessionResponse{
		Handle:    session.Handle,
		Pseudonym: session.Pseudonym,
		ExpiresAt: session.ExpiresAt,
		IsNew:     created,
	})
}
