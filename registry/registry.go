// Package registry implements the challenge-resolution and
// reward-settlement engine of the token-curated registry: the listing
// lifecycle state machine, challenge creation and resolution, and the
// settlement rules that move bonded stake between applicants,
// challengers and voters.
//
// All state transitions are atomic and serially ordered: each operation
// either fully applies its effects or fails with a specific error kind
// and no state mutation. Internal bookkeeping is applied before the
// external ledger transfer and rolled back if the transfer fails.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/curatelabs/tcr/logging"
	"github.com/curatelabs/tcr/params"
	"github.com/curatelabs/tcr/shared"
	"github.com/curatelabs/tcr/tokens"
	"github.com/curatelabs/tcr/vote"
)

// DefaultEscrowAccount holds all bonded deposits, challenge bonds and
// undistributed reward pools.
const DefaultEscrowAccount = "tcr/escrow"

// Registry orchestrates the listing lifecycle. It is responsible for:
//   - admitting applications and bonding their deposits,
//   - opening challenges and their commit-reveal polls,
//   - resolving challenges once the reveal window closes,
//   - settling rewards with winning voters exactly once each.
type Registry struct {
	mu     sync.Mutex
	clock  shared.Clock
	ledger tokens.Ledger
	params params.Store
	box    *vote.Box
	db     *database

	escrow   string
	emission string

	listings        map[string]*Listing
	challenges      map[uint64]*Challenge
	refunds         map[string]shared.Amount
	nextChallengeID uint64
}

type newRegistryOptions struct {
	clock    shared.Clock
	scheme   vote.CommitScheme
	escrow   string
	emission string
}

type newRegistryOptionFunc func(*newRegistryOptions)

// WithClock overrides the system clock.
func WithClock(clock shared.Clock) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.clock = clock
	}
}

// WithCommitScheme overrides the ballot box's commitment scheme.
func WithCommitScheme(scheme vote.CommitScheme) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.scheme = scheme
	}
}

// WithEscrowAccount overrides the account holding bonded stake.
func WithEscrowAccount(account string) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.escrow = account
	}
}

// WithEmissionAccount configures the account funding inflation pools.
// Without it every challenge's inflation pool is zero.
func WithEmissionAccount(account string) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.emission = account
	}
}

// New opens a registry engine backed by the given ledger and parameter
// store, persisting its state under dbdir. A registry reopened on an
// existing dbdir recovers all listings, challenges and polls.
func New(
	ctx context.Context,
	dbdir string,
	ledger tokens.Ledger,
	store params.Store,
	opts ...newRegistryOptionFunc,
) (*Registry, error) {
	options := newRegistryOptions{
		clock:  shared.SystemClock(),
		escrow: DefaultEscrowAccount,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := validateParams(store); err != nil {
		return nil, fmt.Errorf("validating governance parameters: %w", err)
	}

	db, err := newDatabase(filepath.Join(dbdir, "state"))
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	var box *vote.Box
	if options.scheme != nil {
		box = vote.NewBox(ledger, options.clock, vote.WithCommitScheme(options.scheme))
	} else {
		box = vote.NewBox(ledger, options.clock)
	}

	r := &Registry{
		clock:           options.clock,
		ledger:          ledger,
		params:          store,
		box:             box,
		db:              db,
		escrow:          options.escrow,
		emission:        options.emission,
		listings:        make(map[string]*Listing),
		challenges:      make(map[uint64]*Challenge),
		refunds:         make(map[string]shared.Amount),
		nextChallengeID: 1,
	}
	if err := r.recover(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("recovering registry state: %w", err)
	}
	return r, nil
}

// validateParams checks that the parameter store serves every key the
// engine consumes, reporting all missing keys at once.
func validateParams(store params.Store) error {
	var result *multierror.Error
	for _, key := range []string{
		params.MinDeposit,
		params.ApplyStageLength,
		params.CommitStageLength,
		params.RevealStageLength,
		params.DispensationPct,
		params.VoteQuorum,
		params.InflationAmount,
	} {
		if _, err := store.Get(key); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (r *Registry) recover(ctx context.Context) error {
	listings, err := r.db.Listings()
	if err != nil {
		return err
	}
	for _, record := range listings {
		r.listings[record.ID] = &Listing{
			ID:                record.ID,
			Owner:             record.Owner,
			Deposit:           record.Deposit,
			Status:            Status(record.Status),
			ApplicationExpiry: time.Unix(record.ApplicationExpiry, 0),
			ChallengeID:       record.ChallengeID,
		}
	}

	challenges, err := r.db.Challenges()
	if err != nil {
		return err
	}
	for _, record := range challenges {
		r.challenges[record.ID] = &Challenge{
			ID:            record.ID,
			ListingID:     record.ListingID,
			Challenger:    record.Challenger,
			PollID:        record.PollID,
			Deposit:       record.Deposit,
			Bond:          record.Bond,
			RewardPool:    record.RewardPool,
			InflationPool: record.InflationPool,
			Resolved:      record.Resolved,
			Winner:        Winner(record.Winner),
		}
		if record.ID >= r.nextChallengeID {
			r.nextChallengeID = record.ID + 1
		}
	}

	polls, err := r.db.Polls()
	if err != nil {
		return err
	}
	for _, record := range polls {
		r.box.Restore(record)
	}

	refunds, err := r.db.Refunds()
	if err != nil {
		return err
	}
	for _, record := range refunds {
		if record.Amount > 0 {
			r.refunds[record.Account] = record.Amount
		}
	}

	if len(listings) > 0 || len(challenges) > 0 {
		logging.FromContext(ctx).Info("recovered registry state",
			zap.Int("listings", len(listings)),
			zap.Int("challenges", len(challenges)),
			zap.Int("polls", len(polls)),
		)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}

// Apply files an application for a listing, bonding the deposit from the
// owner. Applying over an expired, unchallenged application records the
// previous applicant's deposit as owed and settles it from escrow, via
// WithdrawRefund if the immediate settlement fails.
func (r *Registry) Apply(ctx context.Context, listingID, owner string, deposit shared.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	minDeposit, err := r.params.Get(params.MinDeposit)
	if err != nil {
		return err
	}
	if deposit < minDeposit {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientDeposit, deposit, minDeposit)
	}

	var staleOwner string
	var staleDeposit shared.Amount
	if existing, ok := r.listings[listingID]; ok {
		switch {
		case existing.Status == StatusUnlisted:
			// Re-application after a rejection or exit.
		case existing.Status == StatusApplied &&
			!r.underChallenge(existing) &&
			!r.clock.Now().Before(existing.ApplicationExpiry):
			// Stale application that was never finalized; its deposit
			// becomes owed back to the previous applicant.
			staleOwner = existing.Owner
			staleDeposit = existing.Deposit
		default:
			return fmt.Errorf("%w: %s is %s", ErrListingAlreadyActive, listingID, existing.Status)
		}
	}

	applyStage, err := r.params.Get(params.ApplyStageLength)
	if err != nil {
		return err
	}
	owed := r.refunds[staleOwner]
	if staleDeposit > 0 {
		if owed, err = shared.SafeAdd(owed, staleDeposit); err != nil {
			return fmt.Errorf("accruing stale refund: %w", err)
		}
	}

	// Stage all bookkeeping, then settle with a single transfer; the
	// staged state is discarded if the ledger refuses the bond. The
	// stale refund is a separate settlement, tracked as owed until it
	// is paid out of escrow.
	prevListing, hadListing := r.listings[listingID]
	prevOwed := r.refunds[staleOwner]
	listing := &Listing{
		ID:                listingID,
		Owner:             owner,
		Deposit:           deposit,
		Status:            StatusApplied,
		ApplicationExpiry: r.clock.Now().Add(time.Duration(applyStage) * time.Second),
	}
	r.listings[listingID] = listing
	if staleDeposit > 0 {
		r.refunds[staleOwner] = owed
	}

	if err := r.ledger.Transfer(ctx, owner, r.escrow, deposit); err != nil {
		if hadListing {
			r.listings[listingID] = prevListing
		} else {
			delete(r.listings, listingID)
		}
		if staleDeposit > 0 {
			if prevOwed > 0 {
				r.refunds[staleOwner] = prevOwed
			} else {
				delete(r.refunds, staleOwner)
			}
		}
		return fmt.Errorf("bonding deposit: %w", err)
	}
	r.persistListing(logger, listing)
	if staleDeposit > 0 {
		r.persistRefund(logger, staleOwner)
	}

	applicationsMetric.Inc()
	logger.Info("accepted application",
		zap.String("listing", listingID),
		zap.String("owner", owner),
		zap.Uint64("deposit", deposit),
		zap.Time("expiry", listing.ApplicationExpiry),
	)

	if staleDeposit > 0 {
		r.settleRefund(ctx, logger, staleOwner)
	}
	return nil
}

// settleRefund attempts to pay the owed refund out of escrow. On failure
// the amount simply stays owed; WithdrawRefund retries it later. Callers
// must hold r.mu.
func (r *Registry) settleRefund(ctx context.Context, logger *zap.Logger, account string) {
	owed := r.refunds[account]
	if owed == 0 {
		return
	}
	delete(r.refunds, account)
	if err := r.ledger.Transfer(ctx, r.escrow, account, owed); err != nil {
		r.refunds[account] = owed
		logger.Warn("failed to settle owed refund",
			zap.String("account", account),
			zap.Uint64("amount", owed),
			zap.Error(err),
		)
		return
	}
	r.persistRefund(logger, account)
	logger.Info("refunded stale deposit",
		zap.String("account", account),
		zap.Uint64("amount", owed),
	)
}

// WithdrawRefund pays out a stale-deposit refund that could not be
// settled when it became owed. Returns the amount paid.
func (r *Registry) WithdrawRefund(ctx context.Context, account string) (shared.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	owed := r.refunds[account]
	if owed == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoRefundOwed, account)
	}
	delete(r.refunds, account)
	if err := r.ledger.Transfer(ctx, r.escrow, account, owed); err != nil {
		r.refunds[account] = owed
		return 0, fmt.Errorf("refunding %s: %w", account, err)
	}
	r.persistRefund(logger, account)
	logger.Info("withdrew owed refund",
		zap.String("account", account),
		zap.Uint64("amount", owed),
	)
	return owed, nil
}

// RefundOwed returns the stale-deposit refund currently owed to account.
func (r *Registry) RefundOwed(account string) shared.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.refunds[account]
}

// Challenge files a challenge against an applied or whitelisted listing,
// bonding the challenge bond and opening the commit-reveal poll.
func (r *Registry) Challenge(ctx context.Context, listingID, challenger string, bond shared.Amount) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	listing, ok := r.listings[listingID]
	if !ok || listing.Status == StatusUnlisted {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchListing, listingID)
	}
	if r.underChallenge(listing) {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyUnderChallenge, listingID)
	}
	minDeposit, err := r.params.Get(params.MinDeposit)
	if err != nil {
		return 0, err
	}
	if bond < minDeposit {
		return 0, fmt.Errorf("%w: %d < %d", ErrInsufficientBond, bond, minDeposit)
	}

	commitStage, err := r.params.Get(params.CommitStageLength)
	if err != nil {
		return 0, err
	}
	revealStage, err := r.params.Get(params.RevealStageLength)
	if err != nil {
		return 0, err
	}
	dispensationPct, err := r.params.Get(params.DispensationPct)
	if err != nil {
		return 0, err
	}
	inflationAmount, err := r.params.Get(params.InflationAmount)
	if err != nil {
		return 0, err
	}

	// Provisional pool in the challenger-wins shape: both stakes minus
	// the dispensation. Re-fixed at resolution if the applicant wins.
	stake, err := shared.SafeAdd(listing.Deposit, bond)
	if err != nil {
		return 0, fmt.Errorf("computing stake at risk: %w", err)
	}
	dispensation, err := shared.PctOf(stake, dispensationPct)
	if err != nil {
		return 0, fmt.Errorf("computing dispensation: %w", err)
	}
	rewardPool := stake - dispensation

	if err := r.ledger.Transfer(ctx, challenger, r.escrow, bond); err != nil {
		return 0, fmt.Errorf("bonding challenge bond: %w", err)
	}
	inflationPool := shared.Amount(0)
	if r.emission != "" && inflationAmount > 0 {
		balance, err := r.ledger.BalanceOf(ctx, r.emission)
		if err == nil && balance >= inflationAmount {
			if err := r.ledger.Transfer(ctx, r.emission, r.escrow, inflationAmount); err == nil {
				inflationPool = inflationAmount
			} else {
				logger.Warn("failed to fund inflation pool", zap.Error(err))
			}
		}
	}

	now := r.clock.Now()
	commitEnd := now.Add(time.Duration(commitStage) * time.Second)
	revealEnd := commitEnd.Add(time.Duration(revealStage) * time.Second)
	pollID := r.box.CreatePoll(ctx, commitEnd, revealEnd)

	challenge := &Challenge{
		ID:            r.nextChallengeID,
		ListingID:     listingID,
		Challenger:    challenger,
		PollID:        pollID,
		Deposit:       listing.Deposit,
		Bond:          bond,
		RewardPool:    rewardPool,
		InflationPool: inflationPool,
		Winner:        WinnerUnresolved,
	}
	r.nextChallengeID++
	r.challenges[challenge.ID] = challenge
	listing.ChallengeID = challenge.ID

	r.persistListing(logger, listing)
	r.persistChallenge(logger, challenge)
	r.persistPoll(logger, pollID)

	challengesOpenedMetric.Inc()
	logger.Info("opened challenge",
		zap.String("listing", listingID),
		zap.Uint64("challenge", challenge.ID),
		zap.Uint64("poll", pollID),
		zap.String("challenger", challenger),
		zap.Uint64("bond", bond),
		zap.Uint64("reward_pool", rewardPool),
		zap.Uint64("inflation_pool", inflationPool),
	)
	return challenge.ID, nil
}

// FinalizeApplication promotes an applied listing whose application
// window elapsed without a challenge.
func (r *Registry) FinalizeApplication(ctx context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	listing, ok := r.listings[listingID]
	if !ok || listing.Status == StatusUnlisted {
		return fmt.Errorf("%w: %s", ErrNoSuchListing, listingID)
	}
	if listing.Status == StatusWhitelisted {
		return fmt.Errorf("%w: %s is whitelisted", ErrListingAlreadyActive, listingID)
	}
	if r.underChallenge(listing) {
		return fmt.Errorf("%w: %s", ErrAlreadyUnderChallenge, listingID)
	}
	if r.clock.Now().Before(listing.ApplicationExpiry) {
		return fmt.Errorf("%w: %s until %s", ErrApplicationNotExpired, listingID, listing.ApplicationExpiry)
	}

	listing.Status = StatusWhitelisted
	r.persistListing(logger, listing)
	logger.Info("whitelisted listing", zap.String("listing", listingID))
	return nil
}

// Exit removes a whitelisted listing at its owner's request and refunds
// the bonded deposit.
func (r *Registry) Exit(ctx context.Context, listingID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	listing, ok := r.listings[listingID]
	if !ok || listing.Status == StatusUnlisted {
		return fmt.Errorf("%w: %s", ErrNoSuchListing, listingID)
	}
	if listing.Owner != owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, listingID)
	}
	if listing.Status != StatusWhitelisted {
		return fmt.Errorf("%w: %s is %s", ErrNotWhitelisted, listingID, listing.Status)
	}
	if r.underChallenge(listing) {
		return fmt.Errorf("%w: %s", ErrAlreadyUnderChallenge, listingID)
	}

	deposit := listing.Deposit
	listing.Status = StatusUnlisted
	listing.Deposit = 0
	if err := r.ledger.Transfer(ctx, r.escrow, owner, deposit); err != nil {
		listing.Status = StatusWhitelisted
		listing.Deposit = deposit
		return fmt.Errorf("refunding deposit: %w", err)
	}
	r.persistListing(logger, listing)
	logger.Info("listing exited",
		zap.String("listing", listingID),
		zap.Uint64("refund", deposit),
	)
	return nil
}

// UpdateStatus resolves the listing's open challenge once the reveal
// window has closed: it tallies the poll, updates the listing status,
// fixes the reward pool and pays the dispensation. The resolver is the
// caller triggering resolution; it receives the dispensation when the
// applicant wins.
func (r *Registry) UpdateStatus(ctx context.Context, listingID, resolver string) (Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger := r.opLogger(ctx)

	listing, ok := r.listings[listingID]
	if !ok {
		return WinnerUnresolved, fmt.Errorf("%w: %s", ErrNoSuchListing, listingID)
	}
	if listing.ChallengeID == 0 {
		return WinnerUnresolved, fmt.Errorf("%w: listing %s has no challenge", ErrChallengeNotFound, listingID)
	}
	challenge := r.challenges[listing.ChallengeID]
	if challenge.Resolved {
		return challenge.Winner, fmt.Errorf("%w: challenge %d", ErrAlreadyResolved, challenge.ID)
	}
	ended, err := r.box.Ended(challenge.PollID)
	if err != nil {
		return WinnerUnresolved, err
	}
	if !ended {
		return WinnerUnresolved, fmt.Errorf("%w: poll %d", ErrRevealPeriodNotOver, challenge.PollID)
	}

	votesFor, votesAgainst, err := r.box.Tally(challenge.PollID)
	if err != nil {
		return WinnerUnresolved, err
	}
	quorum, err := r.params.Get(params.VoteQuorum)
	if err != nil {
		return WinnerUnresolved, err
	}
	applicantWins, err := passesQuorum(votesFor, votesAgainst, quorum)
	if err != nil {
		return WinnerUnresolved, err
	}

	// Stage the resolution, then interact with the ledger; roll
	// everything back if the payout transfer fails.
	prevListing := *listing
	prevChallenge := *challenge

	var payee string
	var payout shared.Amount
	var winningWeight shared.Amount
	challenge.Resolved = true
	if applicantWins {
		challenge.Winner = WinnerApplicant
		winningWeight = votesFor
		listing.Status = StatusWhitelisted

		// The applicant's deposit stays bonded; only the bond is
		// forfeited. Re-fix the pool accordingly.
		dispensationPct, err := r.params.Get(params.DispensationPct)
		if err != nil {
			*listing, *challenge = prevListing, prevChallenge
			return WinnerUnresolved, err
		}
		dispensation, err := shared.PctOf(challenge.Bond, dispensationPct)
		if err != nil {
			*listing, *challenge = prevListing, prevChallenge
			return WinnerUnresolved, fmt.Errorf("computing dispensation: %w", err)
		}
		challenge.RewardPool = challenge.Bond - dispensation
		payee = resolver
		payout = dispensation
	} else {
		challenge.Winner = WinnerChallenger
		winningWeight = votesAgainst
		listing.Status = StatusUnlisted
		listing.Deposit = 0

		// The pool keeps its creation-time shape; the dispensation is
		// whatever was carved out of the combined stake back then.
		stake, err := shared.SafeAdd(challenge.Deposit, challenge.Bond)
		if err != nil {
			*listing, *challenge = prevListing, prevChallenge
			return WinnerUnresolved, err
		}
		payee = challenge.Challenger
		payout = stake - challenge.RewardPool
	}

	// With nobody on the winning side the pools are unclaimable; they
	// go to the winning party instead of lingering in escrow.
	if winningWeight == 0 {
		extra, err := shared.SafeAdd(challenge.RewardPool, challenge.InflationPool)
		if err == nil {
			payout, err = shared.SafeAdd(payout, extra)
		}
		if err != nil {
			*listing, *challenge = prevListing, prevChallenge
			return WinnerUnresolved, err
		}
		challenge.RewardPool = 0
		challenge.InflationPool = 0
	}

	if payout > 0 {
		if err := r.ledger.Transfer(ctx, r.escrow, payee, payout); err != nil {
			*listing, *challenge = prevListing, prevChallenge
			return WinnerUnresolved, fmt.Errorf("paying dispensation: %w", err)
		}
	}

	r.persistListing(logger, listing)
	r.persistChallenge(logger, challenge)

	challengesResolvedMetric.WithLabelValues(challenge.Winner.String()).Inc()
	logger.Info("resolved challenge",
		zap.String("listing", listingID),
		zap.Uint64("challenge", challenge.ID),
		zap.Stringer("winner", challenge.Winner),
		zap.Uint64("votes_for", votesFor),
		zap.Uint64("votes_against", votesAgainst),
		zap.Uint64("reward_pool", challenge.RewardPool),
		zap.Uint64("dispensation", payout),
	)
	return challenge.Winner, nil
}

// passesQuorum reports whether the applicant side carried the poll:
// votesFor * 100 > quorum * (votesFor + votesAgainst). With a quorum of
// 50 this is a strict majority, so ties resolve for the challenger.
func passesQuorum(votesFor, votesAgainst, quorum shared.Amount) (bool, error) {
	total, err := shared.SafeAdd(votesFor, votesAgainst)
	if err != nil {
		return false, err
	}
	lhs, err := shared.SafeMul(votesFor, 100)
	if err != nil {
		return false, err
	}
	rhs, err := shared.SafeMul(quorum, total)
	if err != nil {
		return false, err
	}
	return lhs > rhs, nil
}

// underChallenge reports whether the listing's most recent challenge is
// still open. Callers must hold r.mu.
func (r *Registry) underChallenge(listing *Listing) bool {
	if listing.ChallengeID == 0 {
		return false
	}
	challenge, ok := r.challenges[listing.ChallengeID]
	return ok && !challenge.Resolved
}

// Listing returns a copy of the listing record.
func (r *Registry) Listing(listingID string) (Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return Listing{}, fmt.Errorf("%w: %s", ErrNoSuchListing, listingID)
	}
	return *listing, nil
}

// ChallengeRecord returns a copy of the challenge record.
func (r *Registry) ChallengeRecord(challengeID uint64) (Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	challenge, ok := r.challenges[challengeID]
	if !ok {
		return Challenge{}, fmt.Errorf("%w: %d", ErrChallengeNotFound, challengeID)
	}
	return *challenge, nil
}

// Listings returns copies of all listing records, ordered by id.
func (r *Registry) Listings() []Listing {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := maps.Keys(r.listings)
	slices.Sort(ids)
	listings := make([]Listing, 0, len(ids))
	for _, id := range ids {
		listings = append(listings, *r.listings[id])
	}
	return listings
}

// opLogger returns the contextual logger tagged with a fresh operation
// id for correlating the log lines of one engine call.
func (r *Registry) opLogger(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx).Named("registry").With(zap.Stringer("op_id", uuid.New()))
}

// Persistence is write-through and best-effort: a failed write leaves
// the engine state authoritative and is only logged.
func (r *Registry) persistListing(logger *zap.Logger, listing *Listing) {
	err := r.db.SaveListing(listingRecord{
		ID:                listing.ID,
		Owner:             listing.Owner,
		Deposit:           listing.Deposit,
		Status:            uint32(listing.Status),
		ApplicationExpiry: listing.ApplicationExpiry.Unix(),
		ChallengeID:       listing.ChallengeID,
	})
	if err != nil {
		logger.Warn("failed to persist listing", zap.String("listing", listing.ID), zap.Error(err))
	}
}

func (r *Registry) persistChallenge(logger *zap.Logger, challenge *Challenge) {
	err := r.db.SaveChallenge(challengeRecord{
		ID:            challenge.ID,
		ListingID:     challenge.ListingID,
		Challenger:    challenge.Challenger,
		PollID:        challenge.PollID,
		Deposit:       challenge.Deposit,
		Bond:          challenge.Bond,
		RewardPool:    challenge.RewardPool,
		InflationPool: challenge.InflationPool,
		Resolved:      challenge.Resolved,
		Winner:        uint32(challenge.Winner),
	})
	if err != nil {
		logger.Warn("failed to persist challenge", zap.Uint64("challenge", challenge.ID), zap.Error(err))
	}
}

func (r *Registry) persistRefund(logger *zap.Logger, account string) {
	err := r.db.SaveRefund(refundRecord{Account: account, Amount: r.refunds[account]})
	if err != nil {
		logger.Warn("failed to persist refund", zap.String("account", account), zap.Error(err))
	}
}

func (r *Registry) persistPoll(logger *zap.Logger, pollID uint64) {
	record, err := r.box.Snapshot(pollID)
	if err == nil {
		err = r.db.SavePoll(record)
	}
	if err != nil {
		logger.Warn("failed to persist poll", zap.Uint64("poll", pollID), zap.Error(err))
	}
}
