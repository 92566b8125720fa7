package user

import "context"

// Repository persists support-side user aggregates keyed by platform identity.
type Repository interface {
	Save(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByPlatformID(ctx context.Context, platformID string) (*User, error)

	// GetOrCreate returns the aggregate for platformID, creating an empty one
	// on first contact.
	GetOrCreate(ctx context.Context, platformID string) (*User, error)
}
