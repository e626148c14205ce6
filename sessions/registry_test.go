// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/sessions"
	"github.com/pollwise/pollwise/testutil"
)

func TestResolveOrCreateMintsNewSession(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)

	s, created, err := reg.ResolveOrCreate(context.Background(), "", models.ClientMetadata{
		UserAgent: "test-agent",
		Locale:    "en-US",
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}
	if !created {
		t.Error("expected a new session to be created")
	}
	if s.Handle == "" {
		t.Error("new session has no handle")
	}
	if s.Pseudonym == "" {
		t.Error("new session has no pseudonym")
	}
	if !s.ExpiresAt.After(time.Now()) {
		t.Error("new session should not start expired")
	}
}

func TestResolveOrCreateIsIdempotentForLiveHandle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)
	ctx := context.Background()

	first, _, err := reg.ResolveOrCreate(ctx, "", models.ClientMetadata{})
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}

	second, created, err := reg.ResolveOrCreate(ctx, first.Handle, models.ClientMetadata{UserAgent: "new-agent"})
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}
	if created {
		t.Error("presenting a live handle must not create a session")
	}
	if second.Handle != first.Handle {
		t.Errorf("handle changed from %s to %s", first.Handle, second.Handle)
	}
	if second.Pseudonym != first.Pseudonym {
		t.Error("pseudonym must be stable across resolves")
	}
	if second.UserAgent != "new-agent" {
		t.Error("resolve should pick up fresh metadata")
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM session`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 session row, got %d", count)
	}
}

func TestResolveOrCreateReplacesExpiredHandle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)
	ctx := context.Background()

	stale := testutil.CreateTestSession(t, conn)
	_, err := conn.Exec(`UPDATE session SET expires_at = $1 WHERE handle = $2`,
		time.Now().UTC().Add(-time.Hour), stale)
	if err != nil {
		t.Fatalf("failed to expire session: %v", err)
	}

	s, created, err := reg.ResolveOrCreate(ctx, stale, models.ClientMetadata{})
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}
	if !created {
		t.Error("an expired handle must mint a new session")
	}
	if s.Handle == stale {
		t.Error("expired handle must not be resurrected")
	}
}

func TestResolveOrCreateUnknownHandleMintsNew(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)

	s, created, err := reg.ResolveOrCreate(context.Background(), "never-issued", models.ClientMetadata{})
	if err != nil {
		t.Fatalf("ResolveOrCreate() error = %v", err)
	}
	if !created || s.Handle == "never-issued" {
		t.Error("unknown handles are ignored, not adopted")
	}
}

func TestValidate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)
	ctx := context.Background()

	handle := testutil.CreateTestSession(t, conn)

	if err := reg.Validate(ctx, identity.Session(handle)); err != nil {
		t.Errorf("live session should validate, got %v", err)
	}
	if err := reg.Validate(ctx, identity.Account("user-7")); err != nil {
		t.Errorf("account identities always validate, got %v", err)
	}

	if err := reg.Validate(ctx, identity.Identity{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("zero identity: got %v, want ErrForbidden", err)
	}
	if err := reg.Validate(ctx, identity.Session("no-such-handle")); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("unknown session: got %v, want ErrForbidden", err)
	}

	_, err := conn.Exec(`UPDATE session SET expires_at = $1 WHERE handle = $2`,
		time.Now().UTC().Add(-time.Minute), handle)
	if err != nil {
		t.Fatalf("failed to expire session: %v", err)
	}
	if err := reg.Validate(ctx, identity.Session(handle)); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expired session: got %v, want ErrForbidden", err)
	}
}

func TestValidateExtendsActivity(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)
	ctx := context.Background()

	handle := testutil.CreateTestSession(t, conn)
	nearExpiry := time.Now().UTC().Add(time.Minute)
	if _, err := conn.Exec(`UPDATE session SET expires_at = $1 WHERE handle = $2`, nearExpiry, handle); err != nil {
		t.Fatalf("failed to shorten session: %v", err)
	}

	if err := reg.Validate(ctx, identity.Session(handle)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	s, err := reg.Get(ctx, handle)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !s.ExpiresAt.After(nearExpiry) {
		t.Error("validation should have extended the session expiry")
	}
}

func TestGetUnknownHandle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	reg := sessions.NewRegistry(conn, 30*24*time.Hour)

	_, err := reg.Get(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}
