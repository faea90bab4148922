package vote_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatelabs/tcr/shared"
	"github.com/curatelabs/tcr/tokens"
	"github.com/curatelabs/tcr/vote"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock  *fakeClock
	ledger *tokens.InMemory
	box    *vote.Box
	poll   uint64
}

// newFixture opens a poll with a 10 minute commit window followed by a
// 10 minute reveal window and funds the given voters with 1000 tokens.
func newFixture(t *testing.T, voters ...string) *fixture {
	t.Helper()
	clock := newFakeClock()
	ledger := tokens.NewInMemory()
	for _, voter := range voters {
		require.NoError(t, ledger.Mint(voter, 1000))
	}
	box := vote.NewBox(ledger, clock)
	poll := box.CreatePoll(
		context.Background(),
		clock.Now().Add(10*time.Minute),
		clock.Now().Add(20*time.Minute),
	)
	return &fixture{clock: clock, ledger: ledger, box: box, poll: poll}
}

func (f *fixture) commitment(choice vote.Choice, weight shared.Amount, salt string) []byte {
	return f.box.Scheme().Commit(choice, weight, []byte(salt))
}

func TestCommitReveal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	err := f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 300, "s1"), 300)
	require.NoError(t, err)
	err = f.box.Commit(ctx, f.poll, "bob", f.commitment(vote.ChoiceAgainst, 500, "s2"), 500)
	require.NoError(t, err)

	locked, err := f.ledger.LockedOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(300), locked)

	f.clock.Advance(10 * time.Minute)

	require.NoError(t, f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s1")))
	require.NoError(t, f.box.Reveal(ctx, f.poll, "bob", vote.ChoiceAgainst, []byte("s2")))

	votesFor, votesAgainst, err := f.box.Tally(f.poll)
	require.NoError(t, err)
	require.Equal(t, uint64(300), votesFor)
	require.Equal(t, uint64(500), votesAgainst)

	ballot, err := f.box.Ballot(f.poll, "bob")
	require.NoError(t, err)
	require.True(t, ballot.Revealed)
	require.Equal(t, vote.ChoiceAgainst, ballot.Choice)
	require.Equal(t, uint64(500), ballot.Weight)
}

func TestCommitErrors(t *testing.T) {
	t.Parallel()
	t.Run("unknown poll", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		err := f.box.Commit(context.Background(), 42, "alice", f.commitment(vote.ChoiceFor, 10, "s"), 10)
		require.ErrorIs(t, err, vote.ErrNoSuchPoll)
	})
	t.Run("after commit window", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		f.clock.Advance(10 * time.Minute)
		err := f.box.Commit(context.Background(), f.poll, "alice", f.commitment(vote.ChoiceFor, 10, "s"), 10)
		require.ErrorIs(t, err, vote.ErrCommitPeriodClosed)
	})
	t.Run("insufficient voting tokens", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		err := f.box.Commit(context.Background(), f.poll, "alice", f.commitment(vote.ChoiceFor, 5000, "s"), 5000)
		require.ErrorIs(t, err, vote.ErrInsufficientVotingTokens)

		locked, err := f.ledger.LockedOf(context.Background(), "alice")
		require.NoError(t, err)
		require.Zero(t, locked)
	})
	t.Run("zero weight", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		err := f.box.Commit(context.Background(), f.poll, "alice", f.commitment(vote.ChoiceFor, 0, "s"), 0)
		require.ErrorIs(t, err, vote.ErrInsufficientVotingTokens)
	})
}

func TestRecommitOverwrites(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "alice")
	ctx := context.Background()

	require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 700, "old"), 700))
	require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceAgainst, 200, "new"), 200))

	// Only the difference is kept locked.
	locked, err := f.ledger.LockedOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(200), locked)

	f.clock.Advance(10 * time.Minute)

	// The old commitment is gone.
	err = f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("old"))
	require.ErrorIs(t, err, vote.ErrRevealMismatch)

	require.NoError(t, f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceAgainst, []byte("new")))
	_, votesAgainst, err := f.box.Tally(f.poll)
	require.NoError(t, err)
	require.Equal(t, uint64(200), votesAgainst)
}

func TestRevealErrors(t *testing.T) {
	t.Parallel()
	t.Run("before commit window closes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		ctx := context.Background()
		require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 100, "s"), 100))
		err := f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s"))
		require.ErrorIs(t, err, vote.ErrRevealPeriodNotOpen)
	})
	t.Run("after reveal window closes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		ctx := context.Background()
		require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 100, "s"), 100))
		f.clock.Advance(20 * time.Minute)
		err := f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s"))
		require.ErrorIs(t, err, vote.ErrRevealPeriodNotOpen)
	})
	t.Run("no commitment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		f.clock.Advance(10 * time.Minute)
		err := f.box.Reveal(context.Background(), f.poll, "alice", vote.ChoiceFor, []byte("s"))
		require.ErrorIs(t, err, vote.ErrNoCommitmentFound)
	})
	t.Run("mismatch leaves tally untouched", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		ctx := context.Background()
		require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 100, "right"), 100))
		f.clock.Advance(10 * time.Minute)

		err := f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("wrong"))
		require.ErrorIs(t, err, vote.ErrRevealMismatch)
		votesFor, votesAgainst, err := f.box.Tally(f.poll)
		require.NoError(t, err)
		require.Zero(t, votesFor)
		require.Zero(t, votesAgainst)

		// A failed reveal is terminal for that attempt only; the correct
		// disclosure still succeeds and is counted exactly once.
		require.NoError(t, f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("right")))
		votesFor, _, err = f.box.Tally(f.poll)
		require.NoError(t, err)
		require.Equal(t, uint64(100), votesFor)
	})
	t.Run("double reveal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "alice")
		ctx := context.Background()
		require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 100, "s"), 100))
		f.clock.Advance(10 * time.Minute)
		require.NoError(t, f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s")))
		err := f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s"))
		require.ErrorIs(t, err, vote.ErrAlreadyRevealed)

		votesFor, _, err := f.box.Tally(f.poll)
		require.NoError(t, err)
		require.Equal(t, uint64(100), votesFor)
	})
}

func TestWithdraw(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "alice")
	ctx := context.Background()

	require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 500, "s"), 500))

	// The full committed weight is reserved while the poll is live.
	err := f.box.Withdraw(ctx, "alice", 1)
	require.ErrorIs(t, err, vote.ErrInsufficientLockedBalance)

	// After the reveal window closes the weight is withdrawable, even
	// though the ballot was never revealed.
	f.clock.Advance(20 * time.Minute)
	require.NoError(t, f.box.Withdraw(ctx, "alice", 500))

	balance, err := f.ledger.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(1000), balance)

	err = f.box.Withdraw(ctx, "alice", 1)
	require.ErrorIs(t, err, vote.ErrInsufficientLockedBalance)
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	require.NoError(t, f.box.Commit(ctx, f.poll, "alice", f.commitment(vote.ChoiceFor, 300, "s1"), 300))
	require.NoError(t, f.box.Commit(ctx, f.poll, "bob", f.commitment(vote.ChoiceAgainst, 400, "s2"), 400))
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.box.Reveal(ctx, f.poll, "alice", vote.ChoiceFor, []byte("s1")))

	record, err := f.box.Snapshot(f.poll)
	require.NoError(t, err)
	require.Len(t, record.Ballots, 2)

	restored := vote.NewBox(f.ledger, f.clock)
	restored.Restore(record)

	votesFor, votesAgainst, err := restored.Tally(f.poll)
	require.NoError(t, err)
	require.Equal(t, uint64(300), votesFor)
	require.Zero(t, votesAgainst)

	ballot, err := restored.Ballot(f.poll, "bob")
	require.NoError(t, err)
	require.False(t, ballot.Revealed)
	require.Equal(t, uint64(400), ballot.Weight)

	// Unrevealed commitments survive the restore and can still be
	// disclosed within the window.
	require.NoError(t, restored.Reveal(ctx, f.poll, "bob", vote.ChoiceAgainst, []byte("s2")))

	// Fresh polls never reuse a restored id.
	next := restored.CreatePoll(ctx, f.clock.Now().Add(time.Hour), f.clock.Now().Add(2*time.Hour))
	require.Greater(t, next, f.poll)
}
