package registry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/curatelabs/tcr/params"
	"github.com/curatelabs/tcr/registry"
	"github.com/curatelabs/tcr/vote"
)

// TestChallengeLifecycle walks one listing through the whole protocol:
// application, challenge, commit-reveal voting, resolution and reward
// settlement, checking every balance along the way.
func TestChallengeLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := testParams()
	store[params.InflationAmount] = 40
	f := newFixture(t, store, withEmission("tcr/emission"))

	require.NoError(t, f.reg.Apply(ctx, "listing-L", "applicant", 100))
	id, err := f.reg.Challenge(ctx, "listing-L", "challenger", 100)
	require.NoError(t, err)
	challenge, err := f.reg.ChallengeRecord(id)
	require.NoError(t, err)
	require.Equal(t, uint64(100), challenge.RewardPool)
	require.Equal(t, uint64(40), challenge.InflationPool)

	commitment := f.commitment(vote.ChoiceAgainst, 500, "420")
	require.NoError(t, f.reg.CommitVote(ctx, challenge.PollID, "voter1", commitment, 500))
	require.Equal(t, uint64(500), f.balance(t, "voter1"))

	// Committed weight stays locked while the poll is live.
	err = f.reg.WithdrawVotingRights(ctx, "voter1", 500)
	require.ErrorIs(t, err, vote.ErrInsufficientLockedBalance)

	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.reg.RevealVote(ctx, challenge.PollID, "voter1", vote.ChoiceAgainst, []byte("420")))
	f.clock.Advance(10 * time.Minute)

	winner, err := f.reg.UpdateStatus(ctx, "listing-L", "resolver")
	require.NoError(t, err)
	require.Equal(t, registry.WinnerChallenger, winner)

	listing, err := f.reg.Listing("listing-L")
	require.NoError(t, err)
	require.Equal(t, registry.StatusUnlisted, listing.Status)
	require.Zero(t, listing.Deposit)

	// The challenger collected the bond back plus the dispensation.
	require.Equal(t, uint64(1100), f.balance(t, "challenger"))
	require.Equal(t, uint64(900), f.balance(t, "applicant"))

	payout, err := f.reg.ClaimReward(ctx, id, "voter1", []byte("420"))
	require.NoError(t, err)
	require.Equal(t, uint64(140), payout)

	_, err = f.reg.ClaimReward(ctx, id, "voter1", []byte("420"))
	require.ErrorIs(t, err, registry.ErrAlreadyClaimed)

	require.NoError(t, f.reg.WithdrawVotingRights(ctx, "voter1", 500))
	require.Equal(t, uint64(1140), f.balance(t, "voter1"))

	// Every bonded token is accounted for: nothing remains in escrow.
	escrow, err := f.ledger.BalanceOf(ctx, registry.DefaultEscrowAccount)
	require.NoError(t, err)
	require.Zero(t, escrow)
}

// TestConcurrentClaims races two settlements of the same ballot; exactly
// one may pay out.
func TestConcurrentClaims(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, testParams())
	id := resolvedChallenge(t, f)

	var paid atomic.Uint64
	var rejected atomic.Int32
	var eg errgroup.Group
	for i := 0; i < 2; i++ {
		eg.Go(func() error {
			payout, err := f.reg.ClaimReward(ctx, id, "voter2", []byte("s2"))
			switch {
			case err == nil:
				paid.Add(payout)
			case errors.Is(err, registry.ErrAlreadyClaimed):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	require.Equal(t, uint64(75), paid.Load())
	require.Equal(t, int32(1), rejected.Load())
	require.Equal(t, uint64(775), f.balance(t, "voter2"))
}
