package registry

import "errors"

var (
	ErrNoSuchListing         = errors.New("no such listing")
	ErrListingAlreadyActive  = errors.New("listing already has an active application or whitelisting")
	ErrInsufficientDeposit   = errors.New("deposit below the minimum")
	ErrAlreadyUnderChallenge = errors.New("listing is already under challenge")
	ErrInsufficientBond      = errors.New("challenge bond below the minimum")
	ErrChallengeNotFound     = errors.New("no such challenge")
	ErrRevealPeriodNotOver   = errors.New("reveal period is not over")
	ErrAlreadyResolved       = errors.New("challenge is already resolved")
	ErrChallengeUnresolved   = errors.New("challenge is not resolved yet")
	ErrAlreadyClaimed        = errors.New("reward already claimed")
	ErrVoteDidNotMatchWinner = errors.New("vote did not match the winning side")
	ErrApplicationNotExpired = errors.New("application window is still open")
	ErrNotOwner              = errors.New("caller does not own the listing")
	ErrNotWhitelisted        = errors.New("listing is not whitelisted")
	ErrNoRefundOwed          = errors.New("no refund owed")
)
