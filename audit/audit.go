// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package audit is the append-only record of privacy-sensitive anonymous
// actions (poll created, vote cast) kept for compliance review.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
)

// Parties splits an identity into the log's actor/session columns: session
// identities are recorded by handle, accounts by derived key.
func Parties(id identity.Identity) (actorKey, sessionHandle string) {
	if id.IsSession() {
		return "", id.ID
	}
	return id.Key(), ""
}

type Log struct {
	db *sql.DB
}

func NewLog(dbConn *sql.DB) *Log {
	return &Log{db: dbConn}
}

// Append records one audit entry. Best-effort from the caller's perspective:
// a write failure is logged and swallowed so it can never roll back the
// originating poll or vote operation. Entries are never mutated or deleted.
func (l *Log) Append(ctx context.Context, actorKey, sessionHandle, action string, detail map[string]any) {
	payload, err := json.Marshal(detail)
	if err != nil {
		slog.Error("audit detail not serializable", "error", err, "action", action)
		payload = []byte("{}")
	}

	var actor, session sql.NullString
	if actorKey != "" {
		actor = sql.NullString{String: actorKey, Valid: true}
	}
	if sessionHandle != "" {
		session = sql.NullString{String: sessionHandle, Valid: true}
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_key, session_handle, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), actor, session, action, string(payload), time.Now().UTC())

	if err != nil {
		slog.Error("failed to write audit entry", "error", err, "action", action)
	}
}

// Recent returns the newest entries for an action, for compliance review
// tooling. An empty action matches everything.
func (l *Log) Recent(ctx context.Context, action string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, actor_key, session_handle, action, detail, created_at
		FROM audit_log
	`
	args := []any{}
	if action != "" {
		query += ` WHERE action = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, action, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		var actor, session sql.NullString
		if err := rows.Scan(&e.ID, &actor, &session, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if actor.Valid {
			e.ActorKey = &actor.String
		}
		if session.Valid {
			e.SessionHandle = &session.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
