// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
)

func TestIdentityFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    identity.Identity
	}{
		{"account header", map[string]string{"X-Account-ID": "alice"}, identity.Account("alice")},
		{"session header", map[string]string{"X-Session-Handle": "h-1"}, identity.Session("h-1")},
		{"account wins over session", map[string]string{"X-Account-ID": "alice", "X-Session-Handle": "h-1"}, identity.Account("alice")},
		{"no headers", nil, identity.Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := IdentityFromRequest(r); got != tt.want {
				t.Errorf("IdentityFromRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, map[string]string{"key": "value"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `"key":"value"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusConflict, "already voted")

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Conflict") || !strings.Contains(body, "already voted") {
		t.Errorf("body = %s", body)
	}
}

func TestParseJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"question":"Q?"}`))
	var req models.CreatePollRequest
	if err := ParseJSONBody(r, &req); err != nil {
		t.Fatalf("ParseJSONBody() error = %v", err)
	}
	if req.Question != "Q?" {
		t.Errorf("Question = %q", req.Question)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`not json`))
	if err := ParseJSONBody(r, &req); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("OPTIONS", "/polls", nil)
	r.Header.Set("Origin", "https://app.example.com")
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Session-Handle") {
		t.Error("session handle header must be allowed for browser clients")
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/polls", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("non-preflight requests pass through, got %d", w.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"forwarded chain", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"real ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"remote addr", "192.168.1.5:4520", nil, "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
