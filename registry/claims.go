package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/curatelabs/tcr/shared"
	"github.com/curatelabs/tcr/vote"
)

// ClaimReward pays a winning voter their share of a resolved challenge's
// reward and inflation pools, proportional to revealed vote weight, at
// most once per (challenge, voter) pair. The salt must reproduce the
// voter's original ballot commitment. Returns the amount paid.
func (r *Registry) ClaimReward(ctx context.Context, challengeID uint64, voter string, salt []byte) (shared.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	challenge, reward, inflation, err := r.settlement(challengeID, voter, salt)
	if err != nil {
		return 0, err
	}
	payout, err := shared.SafeAdd(reward, inflation)
	if err != nil {
		return 0, err
	}

	// Flag first, transfer second; revert the flag if the ledger
	// refuses the payout.
	if err := r.box.MarkClaimed(challenge.PollID, voter, true); err != nil {
		return 0, err
	}
	if err := r.ledger.Transfer(ctx, r.escrow, voter, payout); err != nil {
		if rbErr := r.box.MarkClaimed(challenge.PollID, voter, false); rbErr != nil {
			logger.Error("failed to roll back claim flag", zap.Error(rbErr))
		}
		return 0, fmt.Errorf("paying voter reward: %w", err)
	}
	r.persistPoll(logger, challenge.PollID)

	rewardsClaimedMetric.Inc()
	rewardsPaidMetric.Add(float64(payout))
	logger.Info("paid voter reward",
		zap.Uint64("challenge", challengeID),
		zap.String("voter", voter),
		zap.Uint64("reward", reward),
		zap.Uint64("inflation", inflation),
	)
	return payout, nil
}

// VoterReward returns the voter's share of the challenge's base reward
// pool without settling it.
func (r *Registry) VoterReward(challengeID uint64, voter string, salt []byte) (shared.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, reward, _, err := r.settlement(challengeID, voter, salt)
	return reward, err
}

// VoterInflationReward returns the voter's share of the challenge's
// inflation pool without settling it.
func (r *Registry) VoterInflationReward(challengeID uint64, voter string, salt []byte) (shared.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _, inflation, err := r.settlement(challengeID, voter, salt)
	return inflation, err
}

// settlement validates a claim and computes the voter's pro-rata share
// of both pools. Callers must hold r.mu.
func (r *Registry) settlement(challengeID uint64, voter string, salt []byte) (*Challenge, shared.Amount, shared.Amount, error) {
	challenge, ok := r.challenges[challengeID]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrChallengeNotFound, challengeID)
	}
	if !challenge.Resolved {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrChallengeUnresolved, challengeID)
	}

	ballot, err := r.box.Ballot(challenge.PollID, voter)
	if err != nil {
		if errors.Is(err, vote.ErrNoCommitmentFound) {
			return nil, 0, 0, fmt.Errorf("%w: no ballot from %s", ErrVoteDidNotMatchWinner, voter)
		}
		return nil, 0, 0, err
	}
	winningChoice := vote.ChoiceAgainst
	if challenge.Winner == WinnerApplicant {
		winningChoice = vote.ChoiceFor
	}
	if !ballot.Revealed || ballot.Choice != winningChoice {
		return nil, 0, 0, fmt.Errorf("%w: challenge %d, voter %s", ErrVoteDidNotMatchWinner, challengeID, voter)
	}
	if ballot.Claimed {
		return nil, 0, 0, fmt.Errorf("%w: challenge %d, voter %s", ErrAlreadyClaimed, challengeID, voter)
	}
	if !bytes.Equal(r.box.Scheme().Commit(ballot.Choice, ballot.Weight, salt), ballot.Commitment) {
		return nil, 0, 0, fmt.Errorf("%w: challenge %d, voter %s", vote.ErrRevealMismatch, challengeID, voter)
	}

	votesFor, votesAgainst, err := r.box.Tally(challenge.PollID)
	if err != nil {
		return nil, 0, 0, err
	}
	winningWeight := votesAgainst
	if challenge.Winner == WinnerApplicant {
		winningWeight = votesFor
	}

	// Integer division truncates; the remainders are protocol-retained
	// dust, kept in escrow on purpose.
	reward, err := shared.MulDiv(challenge.RewardPool, ballot.Weight, winningWeight)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("computing voter reward: %w", err)
	}
	inflation, err := shared.MulDiv(challenge.InflationPool, ballot.Weight, winningWeight)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("computing voter inflation reward: %w", err)
	}
	return challenge, reward, inflation, nil
}
