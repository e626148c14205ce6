// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns schema creation and the storage-error helpers shared by the
engine components.

# Schema

CreateSchema is idempotent and portable across the two supported drivers
(lib/pq for PostgreSQL, modernc.org/sqlite for SQLite):

	dbConn, _ := sql.Open("postgres", url)
	err := db.CreateSchema(dbConn)

Tables:

  - session: anonymous identities with lazy expiry
  - poll: definitions, flags, and the total_votes counter
  - poll_option: immutable option sets with per-option counters
  - vote: one row per (poll_id, voter_key), enforced by primary key
  - audit_log: append-only anonymous-action record

# Constraints

  - vote (poll_id, voter_key) primary key — double voting is rejected by
    the store, never by an application-level check
  - poll.total_votes >= 0 and poll_option.votes >= 0
  - poll_option (poll_id, id) primary key

# Error helpers

IsUniqueViolation recognizes constraint rejections from both drivers.
Retry wraps transient connection failures with bounded linear backoff and
surfaces apperr.ErrStorageUnavailable when attempts are exhausted.
*/
package db
