package registry

import (
	"context"

	"github.com/curatelabs/tcr/shared"
	"github.com/curatelabs/tcr/vote"
)

// The voting operations are served by the ballot box; the registry
// fronts them so that every ballot mutation is also written through to
// the durable store.

// CommitVote stores a ballot commitment for a challenge poll, locking
// the committed weight as voting rights.
func (r *Registry) CommitVote(ctx context.Context, pollID uint64, voter string, commitment []byte, weight shared.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.box.Commit(ctx, pollID, voter, commitment, weight); err != nil {
		return err
	}
	r.persistPoll(r.opLogger(ctx), pollID)
	return nil
}

// RevealVote discloses a previously committed ballot.
func (r *Registry) RevealVote(ctx context.Context, pollID uint64, voter string, choice vote.Choice, salt []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.box.Reveal(ctx, pollID, voter, choice, salt); err != nil {
		return err
	}
	r.persistPoll(r.opLogger(ctx), pollID)
	return nil
}

// WithdrawVotingRights releases locked voting weight not reserved by a
// poll whose reveal window is still open.
func (r *Registry) WithdrawVotingRights(ctx context.Context, voter string, amount shared.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.box.Withdraw(ctx, voter, amount)
}

// Poll returns a snapshot of a poll's public record.
func (r *Registry) Poll(pollID uint64) (vote.PollRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.box.Snapshot(pollID)
}

// CommitScheme returns the scheme voters must use to produce ballot
// commitments for this registry.
func (r *Registry) CommitScheme() vote.CommitScheme {
	return r.box.Scheme()
}
