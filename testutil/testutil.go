// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pollwise/pollwise/cliparse"
	"github.com/pollwise/pollwise/db"
)

// SetupTestDB creates a fresh SQLite database under t.TempDir with the full
// schema. WAL plus a generous busy timeout lets the concurrency tests hammer
// it from many goroutines.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pollwise_test.db")
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         4520,
		DatabaseURL:  "pollwise_test.db",
		DatabaseType: "sqlite",
		SessionTTL:   cliparse.DefaultSessionTTL,
	}
}

// PollFixture configures CreateTestPoll. Zero value gives an active,
// public, non-anonymous single-choice poll with two options.
type PollFixture struct {
	Question                string
	CreatorKey              string
	Options                 []string
	Tags                    []string
	MultipleChoice          bool
	Anonymous               bool
	ShowResultsBeforeVoting bool
	Inactive                bool
	ExpiresAt               *time.Time
}

// CreateTestPoll inserts a poll with options option_1..option_n and returns
// its id.
func CreateTestPoll(t *testing.T, conn *sql.DB, fx PollFixture) string {
	t.Helper()

	if fx.Question == "" {
		fx.Question = "Test question?"
	}
	if fx.CreatorKey == "" {
		fx.CreatorKey = "account:creator"
	}
	if len(fx.Options) == 0 {
		fx.Options = []string{"Yes", "No"}
	}
	if fx.Tags == nil {
		fx.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(fx.Tags)

	pollID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO poll (id, question, description, tags, creator_key,
			multiple_choice, anonymous, public, show_results_before_voting,
			allow_comments, active, total_votes, expires_at, created_at)
		VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12)
	`, pollID, fx.Question, string(tagsJSON), fx.CreatorKey,
		fx.MultipleChoice, fx.Anonymous, true, fx.ShowResultsBeforeVoting,
		false, !fx.Inactive, fx.ExpiresAt, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, label := range fx.Options {
		_, err := conn.Exec(`
			INSERT INTO poll_option (poll_id, id, label, votes, position)
			VALUES ($1, $2, $3, 0, $4)
		`, pollID, optionID(i), label, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return pollID
}

func optionID(position int) string {
	return "option_" + string(rune('1'+position))
}

// CreateTestSession inserts an unexpired session and returns its handle.
func CreateTestSession(t *testing.T, conn *sql.DB) string {
	t.Helper()

	handle := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO session (handle, pseudonym, user_agent, locale, region, created_at, last_seen_at, expires_at)
		VALUES ($1, 'TestOtter0001', 'test-agent', 'en-US', '', $2, $2, $3)
	`, handle, now, now.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return handle
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
