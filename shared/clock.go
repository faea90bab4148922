package shared

import "time"

// Clock is the time source for all stage-window computations. A single
// clock instance is shared by the registry and the ballot box so that
// every window check observes the same ordering of timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
