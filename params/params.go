// Package params provides read-only access to the governance parameters
// consumed by the registry core. Parameter changes are an external
// governance concern; this package only serves lookups.
package params

import (
	"errors"
	"fmt"
)

// Keys of the governance parameters the core consumes. Durations are
// expressed in seconds, percentages as integers in [0, 100].
const (
	MinDeposit        = "min-deposit"
	ApplyStageLength  = "apply-stage-length"
	CommitStageLength = "commit-stage-length"
	RevealStageLength = "reveal-stage-length"
	DispensationPct   = "dispensation-pct"
	VoteQuorum        = "vote-quorum"
	InflationAmount   = "inflation-amount"
)

var ErrUnknownParameter = errors.New("unknown parameter")

// Store is the read path to the governance parameter set.
type Store interface {
	Get(key string) (uint64, error)
}

// Map is an in-memory parameter store.
type Map map[string]uint64

func (m Map) Get(key string) (uint64, error) {
	value, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	return value, nil
}

// Defaults returns a parameter set suitable for tests and local runs.
func Defaults() Map {
	return Map{
		MinDeposit:        10,
		ApplyStageLength:  600,
		CommitStageLength: 600,
		RevealStageLength: 600,
		DispensationPct:   50,
		VoteQuorum:        50,
		InflationAmount:   0,
	}
}
