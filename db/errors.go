// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pollwise/pollwise/apperr"
)

// IsUniqueViolation reports whether err is a unique-constraint rejection.
// Both supported drivers are matched: lib/pq reports "duplicate key value
// violates unique constraint", modernc.org/sqlite reports "UNIQUE constraint
// failed".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsRetryable reports whether err looks like a transient connection failure
// worth retrying, as opposed to a statement error that will fail again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe")
}

// Retry runs fn up to attempts times with linear backoff, retrying only
// transient failures. When attempts are exhausted the last error is wrapped
// as apperr.ErrStorageUnavailable so callers see the public kind.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err)
}
