// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sessions is the session registry: it resolves and persists anonymous
identities independent of any authenticated account.

A session is a cryptographically random opaque handle with a TTL. Handles are
minted on first anonymous interaction and refreshed on every subsequent one;
they are never deleted, only garbage-collected by expiry at access time:

	s, created, err := registry.ResolveOrCreate(ctx, handle, meta)

Validate gates mutating operations: expired or unknown handles may not create
polls or cast votes.

GeneratePseudonym produces display names (e.g. "SwiftOtter0831") for labeling
anonymous activity. It never fails and makes no uniqueness promise.
*/
package sessions
