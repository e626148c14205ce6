// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sessions

import (
	"regexp"
	"testing"
)

var pseudonymShape = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)

func TestGeneratePseudonymShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := GeneratePseudonym()
		if !pseudonymShape.MatchString(name) {
			t.Fatalf("GeneratePseudonym() = %q, want adjective+noun+4 digits", name)
		}
	}
}

func TestGeneratePseudonymVaries(t *testing.T) {
	// Not a uniqueness guarantee, but 20 draws from a ~5.7M space should
	// essentially never all collide.
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[GeneratePseudonym()] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected varied pseudonyms, got %d distinct of 20", len(seen))
	}
}
