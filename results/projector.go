// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/models"
	"github.com/pollwise/pollwise/polls"
	"github.com/pollwise/pollwise/votes"
)

// Projector computes displayable tallies from the poll store's counters.
// Results applies the anonymity privacy policy; Analytics never does.
type Projector struct {
	db     *sql.DB
	polls  *polls.Store
	ledger *votes.Ledger
}

func NewProjector(dbConn *sql.DB, pollStore *polls.Store, ledger *votes.Ledger) *Projector {
	return &Projector{db: dbConn, polls: pollStore, ledger: ledger}
}

// Results returns the percentage breakdown for requester.
//
// Privacy rule: on an anonymous poll that does not show results before
// voting, a requester with no recorded vote sees every count zeroed - total
// included - so a non-participant cannot infer the tally. UserVoted is always
// reported truthfully. Everyone else sees real numbers.
func (p *Projector) Results(ctx context.Context, pollID string, requester identity.Identity) (models.ResultView, error) {
	poll, err := p.polls.Get(ctx, pollID)
	if err != nil {
		return models.ResultView{}, err
	}

	vote, err := p.ledger.VoteFor(ctx, pollID, requester)
	if err != nil {
		return models.ResultView{}, err
	}
	userVoted := vote != nil

	view := models.ResultView{
		PollID:    poll.ID,
		Question:  poll.Question,
		UserVoted: userVoted,
	}

	if poll.Anonymous && !poll.ShowResultsBeforeVoting && !userVoted {
		view.Hidden = true
		view.TotalVotes = 0
		for _, opt := range poll.Options {
			view.Options = append(view.Options, models.OptionResult{
				ID:    opt.ID,
				Label: opt.Label,
			})
		}
		return view, nil
	}

	view.TotalVotes = poll.TotalVotes
	for _, opt := range poll.Options {
		view.Options = append(view.Options, models.OptionResult{
			ID:         opt.ID,
			Label:      opt.Label,
			Votes:      opt.Votes,
			Percentage: percentage(opt.Votes, poll.TotalVotes),
		})
	}
	return view, nil
}

// Analytics is the creator/operator view: real, unmasked numbers regardless
// of the poll's privacy flags. The independent aggregates run concurrently.
func (p *Projector) Analytics(ctx context.Context, pollID string) (models.PollAnalytics, error) {
	poll, err := p.polls.Get(ctx, pollID)
	if err != nil {
		return models.PollAnalytics{}, err
	}

	analytics := models.PollAnalytics{PollID: poll.ID}
	since := time.Now().UTC().Add(-24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.db.QueryRowContext(gctx,
			`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID,
		).Scan(&analytics.TotalVoters)
	})
	g.Go(func() error {
		return p.db.QueryRowContext(gctx,
			`SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND anonymous = $2`, pollID, true,
		).Scan(&analytics.AnonymousVoters)
	})
	g.Go(func() error {
		return p.db.QueryRowContext(gctx,
			`SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND cast_at >= $2`, pollID, since,
		).Scan(&analytics.ActiveLast24h)
	})

	var engaged int
	g.Go(func() error {
		// A voter counts as engaged when they did anything recorded after
		// this vote: voted elsewhere, or show up in the audit trail.
		return p.db.QueryRowContext(gctx, `
			SELECT COUNT(*) FROM vote v
			WHERE v.poll_id = $1
			  AND (
				EXISTS (
					SELECT 1 FROM vote later
					WHERE later.voter_key = v.voter_key AND later.cast_at > v.cast_at
				)
				OR EXISTS (
					SELECT 1 FROM audit_log a
					WHERE (a.actor_key = v.voter_key OR ('session:' || a.session_handle) = v.voter_key)
					  AND a.created_at > v.cast_at
				)
			  )
		`, pollID).Scan(&engaged)
	})

	var lastVoteAt time.Time
	var haveLastVote bool
	g.Go(func() error {
		err := p.db.QueryRowContext(gctx, `
			SELECT cast_at FROM vote WHERE poll_id = $1 ORDER BY cast_at DESC LIMIT 1
		`, pollID).Scan(&lastVoteAt)
		if err == sql.ErrNoRows {
			return nil
		}
		haveLastVote = err == nil
		return err
	})

	if err := g.Wait(); err != nil {
		return models.PollAnalytics{}, fmt.Errorf("failed to compute analytics: %w", err)
	}

	analytics.IdentifiedVoters = analytics.TotalVoters - analytics.AnonymousVoters
	if analytics.TotalVoters > 0 {
		analytics.EngagementRate = float64(engaged) / float64(analytics.TotalVoters)
	}
	if haveLastVote {
		t := lastVoteAt
		analytics.LastVoteAt = &t
		analytics.LastVoteAgo = humanize.Time(t)
	}

	analytics.OptionDistribution = make([]models.OptionResult, 0, len(poll.Options))
	for _, opt := range poll.Options {
		analytics.OptionDistribution = append(analytics.OptionDistribution, models.OptionResult{
			ID:         opt.ID,
			Label:      opt.Label,
			Votes:      opt.Votes,
			Percentage: percentage(opt.Votes, poll.TotalVotes),
		})
	}

	return analytics, nil
}

// percentage rounds optionVotes/totalVotes to the nearest whole percent,
// 0 when there are no votes.
func percentage(optionVotes, totalVotes int) int {
	if totalVotes == 0 {
		return 0
	}
	return int(math.Round(float64(optionVotes) / float64(totalVotes) * 100))
}
