// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Pollwise API server.

Pollwise is an anonymous identity and community polling engine: participants,
authenticated or pseudonymous, create polls, cast exactly one vote each, and
read privacy-respecting aggregated results.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=pollwise.db go run main.go

Or with flags:

	go run main.go -p 4520 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL DSN or SQLite file path

Optional settings:

  - PORT (-p): server port (default: 4520)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL (-session-ttl): anonymous session lifetime (default: 720h)

# Architecture

The server is a stateless request-handling layer over a durable relational
store, wired with explicit dependency injection:

  - sessions: anonymous identity registry (handles, pseudonyms, lazy expiry)
  - polls: poll store (definitions, option sets, counters, lifecycle)
  - votes: vote ledger (one row per poll+identity, transactional counters)
  - results: result projector (privacy-filtered tallies, creator analytics)
  - audit: append-only anonymous-action log
  - entitlements: external capability checker boundary
  - handlers, router, middleware: HTTP surface
  - apperr, identity, cache, db, cliparse, models: shared plumbing

The vote ledger's transaction is the only synchronization in the system: no
in-process locks are held, so multiple instances can run against one store.

See package documentation for each component.
*/
package main
