package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatelabs/tcr/registry"
	"github.com/curatelabs/tcr/tokens"
	"github.com/curatelabs/tcr/vote"
)

// TestReopen closes the registry mid-lifecycle and reopens it on the
// same directory; listings, challenges and in-flight ballots must
// survive and the lifecycle must complete normally afterwards.
func TestReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbdir := t.TempDir()

	clock := newFakeClock()
	ledger := tokens.NewInMemory()
	for _, account := range []string{"applicant", "challenger", "voter1"} {
		require.NoError(t, ledger.Mint(account, 1000))
	}

	reg, err := registry.New(ctx, dbdir, ledger, testParams(), registry.WithClock(clock))
	require.NoError(t, err)

	require.NoError(t, reg.Apply(ctx, "listing-1", "applicant", 100))
	id, err := reg.Challenge(ctx, "listing-1", "challenger", 100)
	require.NoError(t, err)
	challenge, err := reg.ChallengeRecord(id)
	require.NoError(t, err)
	commitment := reg.CommitScheme().Commit(vote.ChoiceAgainst, 500, []byte("s1"))
	require.NoError(t, reg.CommitVote(ctx, challenge.PollID, "voter1", commitment, 500))
	require.NoError(t, reg.Close())

	reg, err = registry.New(ctx, dbdir, ledger, testParams(), registry.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	listing, err := reg.Listing("listing-1")
	require.NoError(t, err)
	require.Equal(t, registry.StatusApplied, listing.Status)
	require.Equal(t, "applicant", listing.Owner)
	require.Equal(t, uint64(100), listing.Deposit)
	require.Equal(t, id, listing.ChallengeID)

	recovered, err := reg.ChallengeRecord(id)
	require.NoError(t, err)
	require.Equal(t, challenge, recovered)

	poll, err := reg.Poll(challenge.PollID)
	require.NoError(t, err)
	require.Len(t, poll.Ballots, 1)
	require.Equal(t, "voter1", poll.Ballots[0].Voter)
	require.Equal(t, uint64(500), poll.Ballots[0].Weight)
	require.False(t, poll.Ballots[0].Revealed)

	// The recovered poll accepts the reveal and resolves as usual.
	clock.Advance(10 * time.Minute)
	require.NoError(t, reg.RevealVote(ctx, challenge.PollID, "voter1", vote.ChoiceAgainst, []byte("s1")))
	clock.Advance(10 * time.Minute)
	winner, err := reg.UpdateStatus(ctx, "listing-1", "resolver")
	require.NoError(t, err)
	require.Equal(t, registry.WinnerChallenger, winner)

	payout, err := reg.ClaimReward(ctx, id, "voter1", []byte("s1"))
	require.NoError(t, err)
	require.Equal(t, uint64(100), payout)
}

// TestReopenResolvedChallenge verifies that resolution and claim flags
// are durable: a claim consumed before a restart stays consumed after.
func TestReopenResolvedChallenge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbdir := t.TempDir()

	clock := newFakeClock()
	ledger := tokens.NewInMemory()
	for _, account := range []string{"applicant", "challenger", "voter1"} {
		require.NoError(t, ledger.Mint(account, 1000))
	}

	reg, err := registry.New(ctx, dbdir, ledger, testParams(), registry.WithClock(clock))
	require.NoError(t, err)

	require.NoError(t, reg.Apply(ctx, "listing-1", "applicant", 100))
	id, err := reg.Challenge(ctx, "listing-1", "challenger", 100)
	require.NoError(t, err)
	challenge, err := reg.ChallengeRecord(id)
	require.NoError(t, err)
	commitment := reg.CommitScheme().Commit(vote.ChoiceAgainst, 500, []byte("s1"))
	require.NoError(t, reg.CommitVote(ctx, challenge.PollID, "voter1", commitment, 500))
	clock.Advance(10 * time.Minute)
	require.NoError(t, reg.RevealVote(ctx, challenge.PollID, "voter1", vote.ChoiceAgainst, []byte("s1")))
	clock.Advance(10 * time.Minute)
	_, err = reg.UpdateStatus(ctx, "listing-1", "resolver")
	require.NoError(t, err)
	_, err = reg.ClaimReward(ctx, id, "voter1", []byte("s1"))
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	reg, err = registry.New(ctx, dbdir, ledger, testParams(), registry.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	recovered, err := reg.ChallengeRecord(id)
	require.NoError(t, err)
	require.True(t, recovered.Resolved)
	require.Equal(t, registry.WinnerChallenger, recovered.Winner)

	_, err = reg.UpdateStatus(ctx, "listing-1", "resolver")
	require.ErrorIs(t, err, registry.ErrAlreadyResolved)
	_, err = reg.ClaimReward(ctx, id, "voter1", []byte("s1"))
	require.ErrorIs(t, err, registry.ErrAlreadyClaimed)

	// A fresh challenge id continues past the recovered sequence.
	require.NoError(t, reg.Apply(ctx, "listing-2", "applicant", 100))
	next, err := reg.Challenge(ctx, "listing-2", "challenger", 100)
	require.NoError(t, err)
	require.Greater(t, next, id)
}
