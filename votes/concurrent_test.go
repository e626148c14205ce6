// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/pollwise/pollwise/apperr"
	"github.com/pollwise/pollwise/identity"
	"github.com/pollwise/pollwise/testutil"
)

func TestConcurrentCastsSameIdentity(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	// One writer at a time: SQLite serializes writes anyway, and capping the
	// pool keeps deferred transactions from tripping over each other's locks.
	conn.SetMaxOpenConns(1)
	ledger := newLedger(t, conn)
	ctx := context.Background()

	pollID := testutil.CreateTestPoll(t, conn, testutil.PollFixture{})
	voter := identity.Session("racer")

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = ledger.Cast(ctx, pollID, voter, []string{"option_1"}, false)
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrAlreadyVoted):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one cast must win, got %d", succeeded)
	}
	if rejected != attempts-1 {
		t.Errorf("expected %d rejections, got %d", attempts-1, rejected)
	}

	total, byOption := countersFor(t, conn, pollID)
	if total != 1 || byOption["option_1"] != 1 {
		t.Errorf("counters moved more than once: total=%d options=%v", total, byOption)
	}
}

func TestConcurrentCastsDistinctIdentities(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	conn.SetMaxOpenConns(1)
	ledger := newLedger(t, conn)
	ctx := context.Background()

	pollID := testutil.CreateTestPoll(t, conn, testutil.PollFixture{})

	const voters = 20
	g := new(errgroup.Group)
	for i := 0; i < voters; i++ {
		n := i
		g.Go(func() error {
			voter := identity.Account(fmt.Sprintf("voter-%d", n))
			option := "option_1"
			if n%2 == 1 {
				option = "option_2"
			}
			_, err := ledger.Cast(ctx, pollID, voter, []string{option}, false)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent casts failed: %v", err)
	}

	total, byOption := countersFor(t, conn, pollID)
	if total != voters {
		t.Errorf("total_votes = %d, want %d", total, voters)
	}
	if byOption["option_1"]+byOption["option_2"] != voters {
		t.Errorf("option sum = %d, want %d", byOption["option_1"]+byOption["option_2"], voters)
	}
	if byOption["option_1"] != voters/2 || byOption["option_2"] != voters/2 {
		t.Errorf("expected an even split, got %v", byOption)
	}
}
