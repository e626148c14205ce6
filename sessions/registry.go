// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/db"
	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
)

// Registry resolves and persists anonymous identities. Sessions are never
// deleted; an expired handle is simply no longer honored and a fresh one is
// minted in its place.
type Registry struct {
	db  *sql.DB
	ttl time.Duration
}

func NewRegistry(dbConn *sql.DB, ttl time.Duration) *Registry {
	return &Registry{db: dbConn, ttl: ttl}
}

// ResolveOrCreate returns the session for existingHandle when it is known and
// unexpired, refreshing its expiry and metadata. Otherwise it mints a new
// handle. The second return value reports whether a new session was created.
func (r *Registry) ResolveOrCreate(ctx context.Context, existingHandle string, meta models.ClientMetadata) (models.Session, bool, error) {
	now := time.Now().UTC()

	if existingHandle != "" {
		s, err := r.lookup(ctx, existingHandle)
		if err == nil && now.Before(s.ExpiresAt) {
			s.LastSeenAt = now
			s.ExpiresAt = now.Add(r.ttl)
			if meta.UserAgent != "" {
				s.UserAgent = meta.UserAgent
			}
			err = db.Retry(ctx, 3, func() error {
				_, execErr := r.db.ExecContext(ctx, `
					UPDATE session
					SET last_seen_at = $1, expires_at = $2, user_agent = $3
					WHERE handle = $4
				`, s.LastSeenAt, s.ExpiresAt, s.UserAgent, s.Handle)
				return execErr
			})
			if err != nil {
				return models.Session{}, false, fmt.Errorf("failed to refresh session: %w", err)
			}
			return s, false, nil
		}
		if err != nil && err != sql.ErrNoRows {
			return models.Session{}, false, fmt.Errorf("failed to look up session: %w", err)
		}
		// Unknown or expired handle: fall through and mint a new one.
	}

	s := models.Session{
		Handle:     uuid.NewString(),
		Pseudonym:  GeneratePseudonym(),
		UserAgent:  meta.UserAgent,
		Locale:     meta.Locale,
		Region:     meta.Region,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(r.ttl),
	}

	err := db.Retry(ctx, 3, func() error {
		_, execErr := r.db.ExecContext(ctx, `
			INSERT INTO session (handle, pseudonym, user_agent, locale, region, created_at, last_seen_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, s.Handle, s.Pseudonym, s.UserAgent, s.Locale, s.Region, s.CreatedAt, s.LastSeenAt, s.ExpiresAt)
		return execErr
	})
	if err != nil {
		return models.Session{}, false, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session created", "handle", s.Handle, "pseudonym", s.Pseudonym)
	return s, true, nil
}

// Validate checks that id may perform a mutating operation. Account
// identities pass through; session identities must exist and be unexpired,
// and get their activity window extended as a side effect.
func (r *Registry) Validate(ctx context.Context, id identity.Identity) error {
	if id.IsZero() {
		return fmt.Errorf("%w: an identity is required", apperr.ErrForbidden)
	}
	if !id.IsSession() {
		return nil
	}

	s, err := r.lookup(ctx, id.ID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: unknown session", apperr.ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	now := time.Now().UTC()
	if !now.Before(s.ExpiresAt) {
		return fmt.Errorf("%w: session expired", apperr.ErrForbidden)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE session SET last_seen_at = $1, expires_at = $2 WHERE handle = $3
	`, now, now.Add(r.ttl), s.Handle)
	if err != nil {
		// Refresh is best-effort here; the caller's operation proceeds.
		slog.Warn("failed to refresh session activity", "error", err, "handle", s.Handle)
	}
	return nil
}

// Get returns the session for handle, expired or not. apperr.ErrNotFound for
// unknown handles.
func (r *Registry) Get(ctx context.Context, handle string) (models.Session, error) {
	s, err := r.lookup(ctx, handle)
	if err == sql.ErrNoRows {
		return models.Session{}, fmt.Errorf("%w: session", apperr.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to look up session: %w", err)
	}
	return s, nil
}

func (r *Registry) lookup(ctx context.Context, handle string) (models.Session, error) {
	var s models.Session
	var userAgent, locale, region sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT handle, pseudonym, user_agent, locale, region, created_at, last_seen_at, expires_at
		FROM session
		WHERE handle = $1
	`, handle).Scan(&s.Handle, &s.Pseudonym, &userAgent, &locale, &region,
		&s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if err != nil {
		return models.Session{}, err
	}
	s.UserAgent = userAgent.String
	s.Locale = locale.String
	s.Region = region.String
	return s, nil
}
