package seeding

import "time"

// Backoff computes the wait between retry attempts of a failed queue item:
// base * 2^(attempts-1), capped at max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait required after the given attempt count.
// Attempt counts below one get the base delay.
func (b Backoff) Delay(attempts int) time.Duration {
	if attempts <= 1 {
		return b.Base
	}
	// Doubling past ~30 steps would overflow; it is far beyond the cap anyway.
	if attempts > 30 {
		return b.Max
	}
	d := b.Base << uint(attempts-1)
	if d > b.Max || d <= 0 {
		return b.Max
	}
	return d
}

// Ready reports whether an item that failed at lastAttempt with the given
// attempt count is due for another try. An item with no recorded attempt
// time is always due.
func (b Backoff) Ready(attempts int, lastAttempt *time.Time, now time.Time) bool {
	if lastAttempt == nil {
		return true
	}
	return now.Sub(*lastAttempt) >= b.Delay(attempts)
}
