// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/audit"
	"github.com/pollwise/pollwise/db"
	"github.com/pollwise/pollwise/entitlements"
	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/polls"
)

// Ledger owns the append-only vote record and is the sole authority for
// one-vote-per-identity. Uniqueness is enforced by the storage layer's
// primary key on (poll_id, voter_key), never by a check-then-insert; the
// insert and the counter increments commit in one transaction.
type Ledger struct {
	db           *sql.DB
	polls        *polls.Store
	audit        *audit.Log
	entitlements entitlements.Checker
}

func NewLedger(dbConn *sql.DB, pollStore *polls.Store, auditLog *audit.Log, checker entitlements.Checker) *Ledger {
	return &Ledger{
		db:           dbConn,
		polls:        pollStore,
		audit:        auditLog,
		entitlements: checker,
	}
}

// Cast records one vote for voter on pollID.
//
// Validation order: poll exists, poll active, poll unexpired, option ids
// valid, choice count valid, then the transactional insert. A uniqueness
// rejection maps to ErrAlreadyVoted and is definitive. The poll state is read
// inside the transaction so a cached or stale poll can never let a vote slip
// past lifecycle checks.
func (l *Ledger) Cast(ctx context.Context, pollID string, voter identity.Identity, optionIDs []string, anonymous bool) (models.VoteReceipt, error) {
	if voter.IsZero() {
		return models.VoteReceipt{}, fmt.Errorf("%w: an identity is required to vote", apperr.ErrForbidden)
	}
	if len(optionIDs) == 0 {
		return models.VoteReceipt{}, fmt.Errorf("%w: no options selected", apperr.ErrInvalidOption)
	}

	if anonymous {
		allowed, err := l.entitlements.CanCreateAnonymous(ctx, voter)
		if err != nil {
			return models.VoteReceipt{}, fmt.Errorf("entitlement check failed: %w", err)
		}
		if !allowed {
			return models.VoteReceipt{}, fmt.Errorf("%w: anonymous voting not permitted for this identity", apperr.ErrForbidden)
		}
	}

	castAt := time.Now().UTC()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var active, multipleChoice bool
	var expiresAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT active, multiple_choice, expires_at FROM poll WHERE id = $1
	`, pollID).Scan(&active, &multipleChoice, &expiresAt)
	if err == sql.ErrNoRows {
		return models.VoteReceipt{}, fmt.Errorf("%w: poll", apperr.ErrNotFound)
	}
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to load poll: %w", err)
	}

	if !active {
		return models.VoteReceipt{}, apperr.ErrPollInactive
	}
	if expiresAt.Valid && castAt.After(expiresAt.Time) {
		return models.VoteReceipt{}, apperr.ErrPollExpired
	}

	validOptions, err := pollOptionIDs(ctx, tx, pollID)
	if err != nil {
		return models.VoteReceipt{}, err
	}

	seen := make(map[string]bool, len(optionIDs))
	for _, optionID := range optionIDs {
		if !validOptions[optionID] {
			return models.VoteReceipt{}, fmt.Errorf("%w: %s is not an option of this poll", apperr.ErrInvalidOption, optionID)
		}
		if seen[optionID] {
			return models.VoteReceipt{}, fmt.Errorf("%w: duplicate option %s", apperr.ErrInvalidOption, optionID)
		}
		seen[optionID] = true
	}
	if !multipleChoice && len(optionIDs) != 1 {
		return models.VoteReceipt{}, fmt.Errorf("%w: this poll accepts exactly one choice", apperr.ErrInvalidOption)
	}

	optionsJSON, err := json.Marshal(optionIDs)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to encode option ids: %w", err)
	}

	// The primary key on (poll_id, voter_key) decides the race: of two
	// concurrent casts for the same identity exactly one insert succeeds.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (poll_id, voter_key, option_ids, anonymous, cast_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, voter.Key(), string(optionsJSON), anonymous, castAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.VoteReceipt{}, apperr.ErrAlreadyVoted
		}
		return models.VoteReceipt{}, fmt.Errorf("failed to insert vote: %w", err)
	}

	// Atomic increments keep sum(option.votes) == total_votes without
	// read-modify-write; concurrent casts for different identities both land.
	for _, optionID := range optionIDs {
		_, err = tx.ExecContext(ctx, `
			UPDATE poll_option SET votes = votes + 1 WHERE poll_id = $1 AND id = $2
		`, pollID, optionID)
		if err != nil {
			return models.VoteReceipt{}, fmt.Errorf("failed to increment option counter: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE poll SET total_votes = total_votes + $1 WHERE id = $2
	`, len(optionIDs), pollID)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to increment total counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.VoteReceipt{}, fmt.Errorf("failed to commit vote: %w", err)
	}

	l.polls.Invalidate(pollID)
	slog.Info("vote cast", "poll_id", pollID, "options", len(optionIDs), "anonymous", anonymous)

	if anonymous {
		actorKey, sessionHandle := audit.Parties(voter)
		l.audit.Append(ctx, actorKey, sessionHandle, models.ActionVoteCast, map[string]any{
			"poll_id":    pollID,
			"option_ids": optionIDs,
		})
	}

	return models.VoteReceipt{
		PollID:    pollID,
		OptionIDs: optionIDs,
		CastAt:    castAt,
	}, nil
}

// VoteFor returns voter's vote on pollID, or nil when none is recorded.
// Used by callers to render "you already voted" state.
func (l *Ledger) VoteFor(ctx context.Context, pollID string, voter identity.Identity) (*models.Vote, error) {
	if voter.IsZero() {
		return nil, nil
	}

	var vote models.Vote
	var optionsJSON string
	err := l.db.QueryRowContext(ctx, `
		SELECT poll_id, voter_key, option_ids, anonymous, cast_at
		FROM vote
		WHERE poll_id = $1 AND voter_key = $2
	`, pollID, voter.Key()).Scan(&vote.PollID, &vote.VoterKey, &optionsJSON, &vote.Anonymous, &vote.CastAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}

	if err := json.Unmarshal([]byte(optionsJSON), &vote.OptionIDs); err != nil {
		return nil, fmt.Errorf("failed to decode option ids: %w", err)
	}
	return &vote, nil
}

func pollOptionIDs(ctx context.Context, tx *sql.Tx, pollID string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM poll_option WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan option id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
