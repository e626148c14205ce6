// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sessions

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

var pseudonymAdjectives = []string{
	"Amber", "Bold", "Brave", "Bright", "Calm", "Clever", "Crimson", "Curious",
	"Daring", "Eager", "Gentle", "Golden", "Hidden", "Humble", "Keen", "Lively",
	"Lunar", "Mellow", "Nimble", "Quiet", "Rapid", "Silent", "Swift", "Wild",
}

var pseudonymNouns = []string{
	"Badger", "Falcon", "Fox", "Heron", "Lynx", "Marmot", "Otter", "Owl",
	"Panda", "Puffin", "Raven", "Salmon", "Sparrow", "Stoat", "Swan", "Tiger",
	"Walrus", "Weasel", "Whale", "Wolf", "Wombat", "Wren", "Yak", "Zebra",
}

// GeneratePseudonym builds an adjective+noun+4-digit display name for
// labeling anonymous activity without revealing the session handle. Names
// collide only probabilistically; callers must never use one as an identity
// key. This never fails: if crypto/rand is unavailable it falls back to
// math/rand.
func GeneratePseudonym() string {
	a, n, suffix := randomParts()
	return fmt.Sprintf("%s%s%04d", pseudonymAdjectives[a], pseudonymNouns[n], suffix)
}

func randomParts() (adjective, noun, suffix int) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return mathrand.Intn(len(pseudonymAdjectives)),
			mathrand.Intn(len(pseudonymNouns)),
			mathrand.Intn(10000)
	}
	v := binary.BigEndian.Uint64(buf[:])
	adjective = int(v % uint64(len(pseudonymAdjectives)))
	v /= uint64(len(pseudonymAdjectives))
	noun = int(v % uint64(len(pseudonymNouns)))
	v /= uint64(len(pseudonymNouns))
	suffix = int(v % 10000)
	return adjective, noun, suffix
}
