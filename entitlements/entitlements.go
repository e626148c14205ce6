// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package entitlements abstracts the external capability checker consulted
// before anonymous operations. The engine only needs a yes/no answer;
// billing and subscription logic live elsewhere.
package entitlements

import (
	"context"

	"github.com/pollwise/pollwise/identity"
)

// Checker answers "may this identity create anonymous content". A denial
// surfaces to the caller as Forbidden.
type Checker interface {
	CanCreateAnonymous(ctx context.Context, id identity.Identity) (bool, error)
}

// AllowAll grants every identity anonymous capability. Used when no external
// entitlement service is wired in.
type AllowAll struct{}

func (AllowAll) CanCreateAnonymous(context.Context, identity.Identity) (bool, error) {
	return true, nil
}
