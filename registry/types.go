package registry

import (
	"fmt"
	"time"

	"github.com/curatelabs/tcr/shared"
)

// Status is a listing's position in the registry lifecycle. A rejected
// listing reverts to StatusUnlisted and may be re-applied; listings are
// never hard-deleted.
type Status uint8

const (
	StatusUnlisted Status = iota
	StatusApplied
	StatusWhitelisted
)

func (s Status) String() string {
	switch s {
	case StatusUnlisted:
		return "unlisted"
	case StatusApplied:
		return "applied"
	case StatusWhitelisted:
		return "whitelisted"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Winner identifies the prevailing side of a resolved challenge.
type Winner uint8

const (
	WinnerUnresolved Winner = iota
	WinnerApplicant
	WinnerChallenger
)

func (w Winner) String() string {
	switch w {
	case WinnerApplicant:
		return "applicant"
	case WinnerChallenger:
		return "challenger"
	default:
		return "unresolved"
	}
}

// Listing is an entry in the curated registry, identified by an opaque
// content hash.
type Listing struct {
	ID                string
	Owner             string
	Deposit           shared.Amount
	Status            Status
	ApplicationExpiry time.Time

	// ChallengeID refers to the most recent challenge filed against
	// this listing, resolved or not; zero if it was never challenged.
	ChallengeID uint64
}

// Challenge is a dispute against a listing's membership. It is kept as a
// historical record after resolution and never reused.
type Challenge struct {
	ID         uint64
	ListingID  string
	Challenger string
	PollID     uint64

	// Deposit is the applicant stake at risk, Bond the challenger's.
	Deposit shared.Amount
	Bond    shared.Amount

	// RewardPool is the forfeited-deposit pool split among winning
	// voters; InflationPool is the emission-funded pool distributed
	// alongside it. Both are fixed from the moment Resolved flips true.
	RewardPool    shared.Amount
	InflationPool shared.Amount

	Resolved bool
	Winner   Winner
}
