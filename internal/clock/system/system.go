// Package system provides a real clock implementation.
package system

import "time"

// Clock implements tracker.Clock using time.Now. It returns local time
// because archival throttling is gated on the local calendar date.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time.
func (Clock) Now() time.Time {
	return time.Now()
}
