// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

// Kind distinguishes durable accounts from anonymous browsing sessions.
type Kind string

const (
	KindAccount Kind = "account"
	KindSession Kind = "session"
)

// Identity is a tagged union of the two caller kinds. The zero value means
// "no identity" (an unauthenticated read-only caller).
type Identity struct {
	Kind Kind
	ID   string
}

// Account wraps an externally authenticated account id.
func Account(id string) Identity {
	return Identity{Kind: KindAccount, ID: id}
}

// Session wraps an anonymous session handle.
func Session(handle string) Identity {
	return Identity{Kind: KindSession, ID: handle}
}

// Key derives the single storage key used for vote uniqueness and poll
// ownership. Accounts and sessions can never collide because the kind is
// part of the key.
func (i Identity) Key() string {
	if i.IsZero() {
		return ""
	}
	return string(i.Kind) + ":" + i.ID
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}

func (i Identity) IsSession() bool {
	return i.Kind == KindSession && i.ID != ""
}
