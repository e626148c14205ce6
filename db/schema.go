// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the engine.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is written to the common subset understood by PostgreSQL (lib/pq)
// and SQLite (modernc.org/sqlite): TEXT keys generated in Go, timestamps
// bound as parameters (never NOW()), and counters as plain integers mutated
// only with votes = votes + 1 style updates.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Anonymous sessions. Never deleted; expiry is checked lazily on use.
CREATE TABLE IF NOT EXISTS session (
    handle TEXT PRIMARY KEY,
    pseudonym TEXT NOT NULL,
    user_agent TEXT,
    locale TEXT,
    region TEXT,
    created_at TIMESTAMP NOT NULL,
    last_seen_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_expires ON session(expires_at);

-- Polls. total_votes always equals the sum of the option counters.
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    description TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    creator_key TEXT NOT NULL,
    multiple_choice BOOLEAN NOT NULL DEFAULT FALSE,
    anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    public BOOLEAN NOT NULL DEFAULT TRUE,
    show_results_before_voting BOOLEAN NOT NULL DEFAULT FALSE,
    allow_comments BOOLEAN NOT NULL DEFAULT FALSE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    expires_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_creator ON poll(creator_key);
CREATE INDEX IF NOT EXISTS idx_poll_created ON poll(created_at);

-- Options. The set is immutable after poll creation; only votes mutates.
CREATE TABLE IF NOT EXISTS poll_option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    label TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    position INTEGER NOT NULL,
    PRIMARY KEY (poll_id, id)
);

-- Votes. The primary key on (poll_id, voter_key) is the uniqueness
-- enforcement for one-vote-per-identity; the engine never check-then-inserts.
CREATE TABLE IF NOT EXISTS vote (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    voter_key TEXT NOT NULL,
    option_ids TEXT NOT NULL,
    anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    cast_at TIMESTAMP NOT NULL,
    PRIMARY KEY (poll_id, voter_key)
);

CREATE INDEX IF NOT EXISTS idx_vote_cast_at ON vote(poll_id, cast_at);

-- Append-only audit of privacy-sensitive anonymous actions.
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    actor_key TEXT,
    session_handle TEXT,
    action TEXT NOT NULL,
    detail TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action, created_at);
`
