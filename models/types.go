// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Audit actions recorded for privacy-sensitive anonymous operations
const (
	ActionPollCreated = "poll_created"
	ActionVoteCast    = "vote_cast"
)

// Request types

type ResolveSessionRequest struct {
	Locale string `json:"locale"`
	Region string `json:"region"`
}

type CreatePollRequest struct {
	Question                string     `json:"question"`
	Description             string     `json:"description"`
	Options                 []string   `json:"options"`
	Tags                    []string   `json:"tags"`
	MultipleChoice          bool       `json:"multiple_choice"`
	Anonymous               bool       `json:"anonymous"`
	Public                  bool       `json:"public"`
	ShowResultsBeforeVoting bool       `json:"show_results_before_voting"`
	AllowComments           bool       `json:"allow_comments"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty"`
}

type CastVoteRequest struct {
	OptionIDs []string `json:"option_ids"`
	Anonymous bool     `json:"anonymous"`
}

type SetStatusRequest struct {
	Active bool `json:"active"`
}

// Response types

type ResolveSessionResponse struct {
	Handle    string    `json:"handle"`
	Pseudonym string    `json:"pseudonym"`
	ExpiresAt time.Time `json:"expires_at"`
	IsNew     bool      `json:"is_new"`
}

type MyVoteResponse struct {
	Voted bool  `json:"voted"`
	Vote  *Vote `json:"vote,omitempty"`
}

type ListPollsResponse struct {
	Polls []Poll `json:"polls"`
}

// Domain types

// Session is a durable pseudonymous identity for callers without an account.
// Client metadata is analytics-only and never exposed over the API.
type Session struct {
	Handle     string    `json:"handle"`
	Pseudonym  string    `json:"pseudonym"`
	UserAgent  string    `json:"-"`
	Locale     string    `json:"-"`
	Region     string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ClientMetadata is captured when a session is minted or refreshed.
type ClientMetadata struct {
	UserAgent string
	Locale    string
	Region    string
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID                      string     `json:"id"`
	Question                string     `json:"question"`
	Description             string     `json:"description,omitempty"`
	Tags                    []string   `json:"tags,omitempty"`
	CreatorKey              string     `json:"-"` // Never expose in JSON
	MultipleChoice          bool       `json:"multiple_choice"`
	Anonymous               bool       `json:"anonymous"`
	Public                  bool       `json:"public"`
	ShowResultsBeforeVoting bool       `json:"show_results_before_voting"`
	AllowComments           bool       `json:"allow_comments"`
	Active                  bool       `json:"active"`
	TotalVotes              int        `json:"total_votes"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	Options                 []Option   `json:"options"`
}

type Vote struct {
	PollID    string    `json:"poll_id"`
	VoterKey  string    `json:"-"` // Never expose in JSON
	OptionIDs []string  `json:"option_ids"`
	Anonymous bool      `json:"anonymous"`
	CastAt    time.Time `json:"cast_at"`
}

// VoteReceipt is what a successful cast returns. It never carries the tally;
// callers go through the result projector for that.
type VoteReceipt struct {
	PollID    string    `json:"poll_id"`
	OptionIDs []string  `json:"option_ids"`
	CastAt    time.Time `json:"cast_at"`
}

type AuditEntry struct {
	ID            string    `json:"id"`
	ActorKey      *string   `json:"actor_key,omitempty"`
	SessionHandle *string   `json:"session_handle,omitempty"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListFilter narrows ListPolls. Nil flag pointers mean "don't care".
type ListFilter struct {
	Active    *bool
	Public    *bool
	Anonymous *bool
	Query     string
	Tags      []string
	Limit     int
	Offset    int
}

// Result types

type OptionResult struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// ResultView is the privacy-filtered public tally. When Hidden is true all
// counts are zeroed for this requester; UserVoted stays truthful.
type ResultView struct {
	PollID     string         `json:"poll_id"`
	Question   string         `json:"question"`
	TotalVotes int            `json:"total_votes"`
	Options    []OptionResult `json:"options"`
	UserVoted  bool           `json:"user_voted"`
	Hidden     bool           `json:"results_hidden"`
}

// PollAnalytics is the creator/operator view. Always computed from real
// counts, never masked.
type PollAnalytics struct {
	PollID             string         `json:"poll_id"`
	TotalVoters        int            `json:"total_voters"`
	AnonymousVoters    int            `json:"anonymous_voters"`
	IdentifiedVoters   int            `json:"identified_voters"`
	OptionDistribution []OptionResult `json:"option_distribution"`
	ActiveLast24h      int            `json:"active_last_24h"`
	EngagementRate     float64        `json:"engagement_rate"`
	LastVoteAt         *time.Time     `json:"last_vote_at,omitempty"`
	LastVoteAgo        string         `json:"last_vote_ago,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
