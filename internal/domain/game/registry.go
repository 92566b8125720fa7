package game

import "context"

// Registry is the per-user session table. Keyed by platform user ID; at most
// one live session per user. PutIfAbsent and Remove are the atomic primitives
// that enforce the invariant, so a backing implementation can move to a
// shared store without touching engine logic.
type Registry interface {
	// PutIfAbsent stores the session under its user ID. Returns false without
	// storing when the user already has a session.
	PutIfAbsent(ctx context.Context, s *Session) (bool, error)

	// Get returns the user's live session, or nil when there is none.
	Get(ctx context.Context, userID string) (*Session, error)

	// Remove deletes the user's session. Removing an absent session is a no-op
	// returning false.
	Remove(ctx context.Context, userID string) (bool, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}
