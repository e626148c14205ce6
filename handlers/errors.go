// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/middleware"
)

// respondError maps an engine error to its HTTP status. Only the public error
// kinds reach the caller verbatim; anything else is logged and collapsed to a
// generic message so storage internals never leak.
func respondError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, status, "Internal error")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}
