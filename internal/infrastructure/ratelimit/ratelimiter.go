// Package ratelimit provides per-actor fixed-window counters. Each action
// class gets its own limiter instance with its own key namespace so ticket
// creation and game interactions cannot contaminate each other.
//
// The counter is a fixed window, not a sliding log: an actor can burst up to
// nearly double the nominal rate across a window boundary. This is a known
// accuracy trade-off accepted for short-horizon abuse prevention.
package ratelimit

import "time"

// RateLimiter caps an actor's action count inside a time window.
type RateLimiter interface {
	// Allow reports whether key may perform another action in the current
	// window, counting this call.
	Allow(key string) (bool, error)

	// Remaining returns how many actions key has left in the current window.
	Remaining(key string) (int, error)

	// RetryAfter returns how long key must wait before the window resets.
	// Zero when the key is not limited.
	RetryAfter(key string) (time.Duration, error)

	// Reset clears the window for key.
	Reset(key string) error
}

// Sweeper is implemented by limiters that hold expired windows in memory
// until evicted. The maintenance scheduler calls Sweep hourly.
type Sweeper interface {
	Sweep() int
}
