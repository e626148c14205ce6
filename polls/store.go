// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/audit"
	"github.com/pollwise/pollwise/cache"
	"github.com/pollwise/pollwise/db"
	"github.com/pollwise/pollwise/entitlements"
	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
)

// readCacheTTL bounds staleness of cached poll reads. Mutations invalidate
// explicitly, so the TTL only covers writes from other service instances.
const readCacheTTL = 5 * time.Second

// Store owns poll definitions, option sets, and the aggregate counters.
// Counters are mutated only by the vote ledger's transaction; the store
// exposes Invalidate so the ledger can drop cached reads after a cast.
type Store struct {
	db           *sql.DB
	audit        *audit.Log
	entitlements entitlements.Checker
	cache        *cache.TTL
}

func NewStore(dbConn *sql.DB, auditLog *audit.Log, checker entitlements.Checker) *Store {
	return &Store{
		db:           dbConn,
		audit:        auditLog,
		entitlements: checker,
		cache:        cache.New(readCacheTTL),
	}
}

// CreateInput carries everything needed to create a poll.
type CreateInput struct {
	Question                string
	Description             string
	Options                 []string
	Tags                    []string
	MultipleChoice          bool
	Anonymous               bool
	Public                  bool
	ShowResultsBeforeVoting bool
	AllowComments           bool
	ExpiresAt               *time.Time
}

// Create validates and persists a new poll owned by creator. Options get
// stable ids option_1..option_n and zeroed counters; the set is immutable
// afterwards. Anonymous creation consults the entitlement checker and is
// recorded in the audit log.
func (s *Store) Create(ctx context.Context, creator identity.Identity, in CreateInput) (models.Poll, error) {
	if creator.IsZero() {
		return models.Poll{}, fmt.Errorf("%w: a creator identity is required", apperr.ErrForbidden)
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return models.Poll{}, fmt.Errorf("%w: question is required", apperr.ErrValidation)
	}
	if len(in.Options) < 2 {
		return models.Poll{}, fmt.Errorf("%w: a poll needs at least 2 options", apperr.ErrValidation)
	}
	for _, label := range in.Options {
		if strings.TrimSpace(label) == "" {
			return models.Poll{}, fmt.Errorf("%w: option labels must not be empty", apperr.ErrValidation)
		}
	}

	if in.Anonymous {
		allowed, err := s.entitlements.CanCreateAnonymous(ctx, creator)
		if err != nil {
			return models.Poll{}, fmt.Errorf("entitlement check failed: %w", err)
		}
		if !allowed {
			return models.Poll{}, fmt.Errorf("%w: anonymous polls not permitted for this identity", apperr.ErrForbidden)
		}
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to encode tags: %w", err)
	}

	poll := models.Poll{
		ID:                      uuid.NewString(),
		Question:                question,
		Description:             strings.TrimSpace(in.Description),
		Tags:                    tags,
		CreatorKey:              creator.Key(),
		MultipleChoice:          in.MultipleChoice,
		Anonymous:               in.Anonymous,
		Public:                  in.Public,
		ShowResultsBeforeVoting: in.ShowResultsBeforeVoting,
		AllowComments:           in.AllowComments,
		Active:                  true,
		ExpiresAt:               in.ExpiresAt,
		CreatedAt:               time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, question, description, tags, creator_key,
			multiple_choice, anonymous, public, show_results_before_voting,
			allow_comments, active, total_votes, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13)
	`, poll.ID, poll.Question, poll.Description, string(tagsJSON), poll.CreatorKey,
		poll.MultipleChoice, poll.Anonymous, poll.Public, poll.ShowResultsBeforeVoting,
		poll.AllowComments, poll.Active, poll.ExpiresAt, poll.CreatedAt)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, label := range in.Options {
		opt := models.Option{
			ID:    fmt.Sprintf("option_%d", i+1),
			Label: strings.TrimSpace(label),
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, id, label, votes, position)
			VALUES ($1, $2, $3, 0, $4)
		`, poll.ID, opt.ID, opt.Label, i)
		if err != nil {
			return models.Poll{}, fmt.Errorf("failed to insert option: %w", err)
		}
		poll.Options = append(poll.Options, opt)
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit poll: %w", err)
	}

	slog.Info("poll created", "poll_id", poll.ID, "anonymous", poll.Anonymous)

	if poll.Anonymous {
		actorKey, sessionHandle := audit.Parties(creator)
		s.audit.Append(ctx, actorKey, sessionHandle, models.ActionPollCreated, map[string]any{
			"poll_id":  poll.ID,
			"question": poll.Question,
		})
	}

	return poll, nil
}

// Get returns the poll with its options, through a short-TTL read cache.
func (s *Store) Get(ctx context.Context, pollID string) (models.Poll, error) {
	if cached, ok := s.cache.Get(pollID); ok {
		return cached.(models.Poll), nil
	}

	var poll models.Poll
	err := db.Retry(ctx, 3, func() error {
		var loadErr error
		poll, loadErr = s.load(ctx, pollID)
		return loadErr
	})
	if err == sql.ErrNoRows {
		return models.Poll{}, fmt.Errorf("%w: poll", apperr.ErrNotFound)
	}
	if err != nil {
		if apperr.IsKind(err) {
			return models.Poll{}, err
		}
		return models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}

	s.cache.Put(pollID, poll)
	return poll, nil
}

// List returns polls matching filter, newest first.
func (s *Store) List(ctx context.Context, filter models.ListFilter) ([]models.Poll, error) {
	query := `
		SELECT id, question, description, tags, creator_key,
		       multiple_choice, anonymous, public, show_results_before_voting,
		       allow_comments, active, total_votes, expires_at, created_at
		FROM poll
	`
	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Active != nil {
		where = append(where, "active = "+arg(*filter.Active))
	}
	if filter.Public != nil {
		where = append(where, "public = "+arg(*filter.Public))
	}
	if filter.Anonymous != nil {
		where = append(where, "anonymous = "+arg(*filter.Anonymous))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(question) LIKE "+arg(pattern)+
			" OR LOWER(COALESCE(description, '')) LIKE "+arg(pattern)+")")
	}
	if len(filter.Tags) > 0 {
		// Tags are stored as a JSON array; overlap means any requested tag
		// appears in the poll's list.
		overlap := []string{}
		for _, tag := range filter.Tags {
			overlap = append(overlap, "tags LIKE "+arg(`%"`+tag+`"%`))
		}
		where = append(where, "("+strings.Join(overlap, " OR ")+")")
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}

	for i := range polls {
		options, err := s.loadOptions(ctx, polls[i].ID)
		if err != nil {
			return nil, err
		}
		polls[i].Options = options
	}

	return polls, nil
}

// SetStatus transitions a poll between active and closed. Only the creator
// may do this; reopening a closed poll preserves its existing votes.
func (s *Store) SetStatus(ctx context.Context, pollID string, active bool, requester identity.Identity) error {
	if err := s.requireCreator(ctx, pollID, requester); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `UPDATE poll SET active = $1 WHERE id = $2`, active, pollID)
	if err != nil {
		return fmt.Errorf("failed to update poll status: %w", err)
	}

	s.cache.Del(pollID)
	slog.Info("poll status changed", "poll_id", pollID, "active", active)
	return nil
}

// Delete removes a poll and cascades to its options and votes. Creator only.
func (s *Store) Delete(ctx context.Context, pollID string, requester identity.Identity) error {
	if err := s.requireCreator(ctx, pollID, requester); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Explicit cascade: not every deployment runs with foreign_keys enforced.
	for _, stmt := range []string{
		`DELETE FROM vote WHERE poll_id = $1`,
		`DELETE FROM poll_option WHERE poll_id = $1`,
		`DELETE FROM poll WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, pollID); err != nil {
			return fmt.Errorf("failed to delete poll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit poll deletion: %w", err)
	}

	s.cache.Del(pollID)
	slog.Info("poll deleted", "poll_id", pollID)
	return nil
}

// Invalidate drops the cached read for pollID. The vote ledger calls this
// after every successful cast so fresh counters are visible immediately.
func (s *Store) Invalidate(pollID string) {
	s.cache.Del(pollID)
}

func (s *Store) requireCreator(ctx context.Context, pollID string, requester identity.Identity) error {
	var creatorKey string
	err := s.db.QueryRowContext(ctx, `SELECT creator_key FROM poll WHERE id = $1`, pollID).Scan(&creatorKey)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: poll", apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query poll: %w", err)
	}
	if requester.IsZero() || requester.Key() != creatorKey {
		return fmt.Errorf("%w: only the creator may do this", apperr.ErrForbidden)
	}
	return nil
}

func (s *Store) load(ctx context.Context, pollID string) (models.Poll, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, question, description, tags, creator_key,
		       multiple_choice, anonymous, public, show_results_before_voting,
		       allow_comments, active, total_votes, expires_at, created_at
		FROM poll
		WHERE id = $1
	`, pollID)

	poll, err := scanPoll(row)
	if err != nil {
		return models.Poll{}, err
	}

	options, err := s.loadOptions(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	poll.Options = options
	return poll, nil
}

func (s *Store) loadOptions(ctx context.Context, pollID string) ([]models.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, votes
		FROM poll_option
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.Label, &opt.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var poll models.Poll
	var description sql.NullString
	var tagsJSON string
	var expiresAt sql.NullTime

	err := row.Scan(&poll.ID, &poll.Question, &description, &tagsJSON, &poll.CreatorKey,
		&poll.MultipleChoice, &poll.Anonymous, &poll.Public, &poll.ShowResultsBeforeVoting,
		&poll.AllowComments, &poll.Active, &poll.TotalVotes, &expiresAt, &poll.CreatedAt)
	if err != nil {
		return models.Poll{}, err
	}

	poll.Description = description.String
	if expiresAt.Valid {
		t := expiresAt.Time
		poll.ExpiresAt = &t
	}
	if err := json.Unmarshal([]byte(tagsJSON), &poll.Tags); err != nil {
		poll.Tags = []string{}
	}
	return poll, nil
}
