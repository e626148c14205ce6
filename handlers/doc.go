// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for the polling engine.

# Handler Types

Each handler is a struct over the engine components it needs, created via
constructor functions in the router:

  - SessionHandler: anonymous session resolution
  - PollHandler: poll lifecycle (create, list, get, status, delete)
  - VoteHandler: vote casting and "my vote" lookup
  - ResultsHandler: privacy-filtered results and creator analytics

# Identity

Callers present X-Account-ID (set by the upstream authentication layer) or
X-Session-Handle (obtained from POST /sessions). Mutating operations validate
session identities against the registry; expired handles are rejected with
403. Reads accept any identity, including none - the result projector just
masks accordingly.

# Flow

	POST /sessions                   → Resolve (mint or refresh a handle)
	POST /polls                      → Create
	GET  /polls, GET /polls/{id}     → List / Get
	POST /polls/{id}/status          → SetStatus (creator only)
	DELETE /polls/{id}               → Delete (creator only, cascades votes)
	POST /polls/{id}/votes           → Cast (one per identity, enforced by
	                                   the vote table's primary key)
	GET  /polls/{id}/votes/me        → MyVote
	GET  /polls/{id}/results         → GetResults (privacy-masked)
	GET  /polls/{id}/analytics       → GetAnalytics (creator only, unmasked)

Engine errors map to statuses via apperr.HTTPStatus; unknown errors are
logged and returned as a generic 500.
*/
package handlers
