package usecases

import (
	"context"
	"time"
)

// RateLimiter is the slice of the limiter contract the lifecycle engine
// needs. The ticket-creation limiter instance carries its own key namespace.
type RateLimiter interface {
	Allow(key string) (bool, error)
	RetryAfter(key string) (time.Duration, error)
}

// StaffChecker resolves the staff capability for an actor. Every staff-gated
// operation rejects non-staff callers before any mutation.
type StaffChecker interface {
	IsStaff(ctx context.Context, actorID string) (bool, error)
}

// scheduleFunc registers a delayed callback and returns its cancel handle.
// Injected so tests can fire callbacks synchronously.
type scheduleFunc func(d time.Duration, fn func()) *time.Timer
