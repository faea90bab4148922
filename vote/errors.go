package vote

import "errors"

var (
	ErrNoSuchPoll                = errors.New("no such poll")
	ErrCommitPeriodClosed        = errors.New("commit period is closed")
	ErrRevealPeriodNotOpen       = errors.New("reveal period is not open")
	ErrNoCommitmentFound         = errors.New("no commitment found")
	ErrAlreadyRevealed           = errors.New("ballot is already revealed")
	ErrRevealMismatch            = errors.New("revealed vote does not match the commitment")
	ErrInsufficientVotingTokens  = errors.New("insufficient voting tokens")
	ErrInsufficientLockedBalance = errors.New("insufficient withdrawable locked balance")
)
