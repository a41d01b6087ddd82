// Package clock provides UTC time helpers and an injectable clock for tests.
// All stored timestamps are UTC; sync cursor comparisons depend on it.
package clock

import "time"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Clock abstracts the current time and sleeping so sync retry delays can be
// controlled in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now().UTC() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Real returns a Clock backed by the wall clock.
func Real() Clock {
	return realClock{}
}
