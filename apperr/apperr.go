// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by the polling engine. Callers branch on these with
// errors.Is; everything else is an internal failure.
var (
	// ErrValidation marks malformed input. Not retryable without fixing
	// the request.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an absent poll, session, or vote.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an authorization failure (not the creator, expired
	// session, or entitlement denial).
	ErrForbidden = errors.New("forbidden")

	// ErrPollInactive is returned when voting on a closed poll.
	ErrPollInactive = errors.New("poll is not active")

	// ErrPollExpired is returned when voting after the poll's expires_at.
	ErrPollExpired = errors.New("poll has expired")

	// ErrInvalidOption marks an option id not in the poll, or a choice-count
	// mismatch for single-choice polls.
	ErrInvalidOption = errors.New("invalid option selection")

	// ErrAlreadyVoted marks a uniqueness violation on (poll, identity).
	// Definitive; retrying cannot succeed.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrStorageUnavailable marks a transient storage failure that survived
	// internal retries. Safe to retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// HTTPStatus maps an engine error to the status code the API returns.
// Unknown errors map to 500 so storage internals never leak to callers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrPollInactive), errors.Is(err, ErrPollExpired),
		errors.Is(err, ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is one of the engine's public error kinds.
func IsKind(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
