// Package vote implements the commit-reveal ballot box used to decide
// registry challenges. Choices are hidden as opaque commitments during
// the commit window and disclosed during the reveal window; the
// token-weighted tally is accumulated incrementally as reveals arrive
// and becomes immutable once the reveal window closes.
package vote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curatelabs/tcr/logging"
	"github.com/curatelabs/tcr/shared"
	"github.com/curatelabs/tcr/tokens"
)

// Choice is a voter's disclosed position on a challenge poll.
type Choice uint8

const (
	// ChoiceAgainst supports the challenger (remove/reject the listing).
	ChoiceAgainst Choice = iota
	// ChoiceFor supports the applicant (keep/admit the listing).
	ChoiceFor
)

func (c Choice) String() string {
	switch c {
	case ChoiceAgainst:
		return "against"
	case ChoiceFor:
		return "for"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// Ballot is one voter's state within a poll. The commitment is bound to
// the (choice, weight, salt) triple via the box's CommitScheme.
type Ballot struct {
	Commitment []byte
	Weight     shared.Amount
	Revealed   bool
	Choice     Choice
	Claimed    bool
}

type poll struct {
	id           uint64
	commitEnd    time.Time
	revealEnd    time.Time
	votesFor     shared.Amount
	votesAgainst shared.Amount
	ballots      map[string]*Ballot
}

// Box stores polls and their ballots and accounts for the voting-rights
// locks backing committed weight. A voter's committed weight stays
// locked until the poll's reveal window closes; after that it counts as
// withdrawable regardless of whether the ballot was revealed.
type Box struct {
	mu     sync.Mutex
	clock  shared.Clock
	ledger tokens.Ledger
	scheme CommitScheme
	nextID uint64
	polls  map[uint64]*poll
}

type newBoxOptionFunc func(*Box)

// WithCommitScheme overrides the default SHA-256 commitment scheme.
func WithCommitScheme(scheme CommitScheme) newBoxOptionFunc {
	return func(b *Box) {
		b.scheme = scheme
	}
}

func NewBox(ledger tokens.Ledger, clock shared.Clock, opts ...newBoxOptionFunc) *Box {
	b := &Box{
		clock:  clock,
		ledger: ledger,
		scheme: NewSHA256Scheme(),
		nextID: 1,
		polls:  make(map[uint64]*poll),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scheme returns the commitment scheme the box verifies reveals against.
func (b *Box) Scheme() CommitScheme {
	return b.scheme
}

// CreatePoll opens a new poll with the given stage windows and returns
// its id.
func (b *Box) CreatePoll(ctx context.Context, commitEnd, revealEnd time.Time) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.polls[id] = &poll{
		id:        id,
		commitEnd: commitEnd,
		revealEnd: revealEnd,
		ballots:   make(map[string]*Ballot),
	}
	pollsCreatedMetric.Inc()
	logging.FromContext(ctx).Debug("opened poll",
		zap.Uint64("poll", id),
		zap.Time("commit_end", commitEnd),
		zap.Time("reveal_end", revealEnd),
	)
	return id
}

// Commit stores a ballot commitment and locks the committed weight for
// the duration of the poll. A prior commitment from the same voter in
// the same poll is overwritten cleanly; only the weight difference is
// locked or released.
func (b *Box) Commit(ctx context.Context, pollID uint64, voter string, commitment []byte, weight shared.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	if !b.clock.Now().Before(p.commitEnd) {
		return fmt.Errorf("%w: poll %d", ErrCommitPeriodClosed, pollID)
	}
	if weight == 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInsufficientVotingTokens)
	}

	var prior shared.Amount
	if ballot, ok := p.ballots[voter]; ok {
		prior = ballot.Weight
	}
	switch {
	case weight > prior:
		if err := b.ledger.Lock(ctx, voter, weight-prior); err != nil {
			if errors.Is(err, tokens.ErrInsufficientBalance) {
				return fmt.Errorf("%w: locking %d tokens: %v", ErrInsufficientVotingTokens, weight-prior, err)
			}
			return fmt.Errorf("locking %d tokens for %s: %w", weight-prior, voter, err)
		}
	case weight < prior:
		if err := b.ledger.Unlock(ctx, voter, prior-weight); err != nil {
			return fmt.Errorf("releasing %d tokens: %w", prior-weight, err)
		}
	}

	p.ballots[voter] = &Ballot{
		Commitment: append([]byte{}, commitment...),
		Weight:     weight,
	}
	votesCommittedMetric.Inc()
	logging.FromContext(ctx).Debug("committed ballot",
		zap.Uint64("poll", pollID),
		zap.String("voter", voter),
		zap.Uint64("weight", weight),
	)
	return nil
}

// Reveal discloses a previously committed ballot. The supplied choice
// and salt must reproduce the stored commitment exactly; on mismatch the
// ballot's committed state is left untouched and the running tally is
// not adjusted.
func (b *Box) Reveal(ctx context.Context, pollID uint64, voter string, choice Choice, salt []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	now := b.clock.Now()
	if now.Before(p.commitEnd) || !now.Before(p.revealEnd) {
		return fmt.Errorf("%w: poll %d", ErrRevealPeriodNotOpen, pollID)
	}
	ballot, ok := p.ballots[voter]
	if !ok {
		return fmt.Errorf("%w: poll %d, voter %s", ErrNoCommitmentFound, pollID, voter)
	}
	if ballot.Revealed {
		return fmt.Errorf("%w: poll %d, voter %s", ErrAlreadyRevealed, pollID, voter)
	}
	if !bytes.Equal(b.scheme.Commit(choice, ballot.Weight, salt), ballot.Commitment) {
		return fmt.Errorf("%w: poll %d, voter %s", ErrRevealMismatch, pollID, voter)
	}

	switch choice {
	case ChoiceFor:
		votesFor, err := shared.SafeAdd(p.votesFor, ballot.Weight)
		if err != nil {
			return fmt.Errorf("tallying votes for: %w", err)
		}
		p.votesFor = votesFor
	default:
		votesAgainst, err := shared.SafeAdd(p.votesAgainst, ballot.Weight)
		if err != nil {
			return fmt.Errorf("tallying votes against: %w", err)
		}
		p.votesAgainst = votesAgainst
	}
	ballot.Revealed = true
	ballot.Choice = choice
	votesRevealedMetric.WithLabelValues(choice.String()).Inc()
	logging.FromContext(ctx).Debug("revealed ballot",
		zap.Uint64("poll", pollID),
		zap.String("voter", voter),
		zap.Stringer("choice", choice),
		zap.Uint64("weight", ballot.Weight),
	)
	return nil
}

// Withdraw releases locked voting weight back to the voter's free
// balance. Only weight not committed to a poll whose reveal window is
// still open may be withdrawn.
func (b *Box) Withdraw(ctx context.Context, voter string, amount shared.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	locked, err := b.ledger.LockedOf(ctx, voter)
	if err != nil {
		return fmt.Errorf("querying locked balance of %s: %w", voter, err)
	}
	active, err := b.activeLock(voter)
	if err != nil {
		return err
	}
	free, err := shared.SafeSub(locked, active)
	if err != nil || amount > free {
		return fmt.Errorf("%w: %s has %d withdrawable, requested %d", ErrInsufficientLockedBalance, voter, free, amount)
	}
	if err := b.ledger.Unlock(ctx, voter, amount); err != nil {
		return fmt.Errorf("unlocking %d for %s: %w", amount, voter, err)
	}
	logging.FromContext(ctx).Debug("withdrew voting rights",
		zap.String("voter", voter),
		zap.Uint64("amount", amount),
	)
	return nil
}

// activeLock sums the voter's committed weight across polls whose
// reveal window has not yet closed. Callers must hold b.mu.
func (b *Box) activeLock(voter string) (shared.Amount, error) {
	now := b.clock.Now()
	var active shared.Amount
	for _, p := range b.polls {
		if !now.Before(p.revealEnd) {
			continue
		}
		ballot, ok := p.ballots[voter]
		if !ok {
			continue
		}
		sum, err := shared.SafeAdd(active, ballot.Weight)
		if err != nil {
			return 0, fmt.Errorf("summing active locks of %s: %w", voter, err)
		}
		active = sum
	}
	return active, nil
}

// Tally returns the current token-weighted totals of a poll.
func (b *Box) Tally(pollID uint64) (votesFor, votesAgainst shared.Amount, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	return p.votesFor, p.votesAgainst, nil
}

// Ended reports whether the poll's reveal window has closed.
func (b *Box) Ended(pollID uint64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	return !b.clock.Now().Before(p.revealEnd), nil
}

// Ballot returns a copy of the voter's ballot in the given poll.
func (b *Box) Ballot(pollID uint64, voter string) (Ballot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return Ballot{}, fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	ballot, ok := p.ballots[voter]
	if !ok {
		return Ballot{}, fmt.Errorf("%w: poll %d, voter %s", ErrNoCommitmentFound, pollID, voter)
	}
	copied := *ballot
	copied.Commitment = append([]byte{}, ballot.Commitment...)
	return copied, nil
}

// MarkClaimed flips the claimed flag of a revealed ballot. The registry
// stages the flag before invoking the ledger and reverts it if the
// transfer fails.
func (b *Box) MarkClaimed(pollID uint64, voter string, claimed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.polls[pollID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchPoll, pollID)
	}
	ballot, ok := p.ballots[voter]
	if !ok {
		return fmt.Errorf("%w: poll %d, voter %s", ErrNoCommitmentFound, pollID, voter)
	}
	ballot.Claimed = claimed
	return nil
}
