// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cache provides a small in-process TTL cache with explicit
// invalidation. Every mutating path must call Del for the keys it touches;
// there is no background sweeper, stale entries fall out on read.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value   any
	expires time.Time
}

// TTL is a mutex-guarded map cache. All entries share one TTL.
type TTL struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

func New(ttl time.Duration) *TTL {
	return &TTL{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value, or false if absent or expired. Expired
// entries are removed on access.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores a value under key for the cache's TTL.
func (c *TTL) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(c.ttl)}
}

// Del removes key. Safe to call for absent keys.
func (c *TTL) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
