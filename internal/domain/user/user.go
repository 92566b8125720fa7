// Package user holds the support-side user aggregate: activity counters and
// the running rating average. It is not an identity or auth model; the chat
// platform owns identity.
package user

import (
	"fmt"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type User struct {
	id             uint
	platformID     string
	ticketsCreated int
	ticketsClosed  int
	gamesPlayed    int
	ratingAverage  float64
	ratingCount    int
	createdAt      time.Time
	updatedAt      time.Time
}

func NewUser(platformID string) (*User, error) {
	if len(platformID) == 0 {
		return nil, fmt.Errorf("platform ID is required")
	}

	now := time.Now()
	return &User{
		platformID: platformID,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructUser(
	id uint,
	platformID string,
	ticketsCreated int,
	ticketsClosed int,
	gamesPlayed int,
	ratingAverage float64,
	ratingCount int,
	createdAt, updatedAt time.Time,
) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	if len(platformID) == 0 {
		return nil, fmt.Errorf("platform ID is required")
	}

	return &User{
		id:             id,
		platformID:     platformID,
		ticketsCreated: ticketsCreated,
		ticketsClosed:  ticketsClosed,
		gamesPlayed:    gamesPlayed,
		ratingAverage:  ratingAverage,
		ratingCount:    ratingCount,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) PlatformID() string {
	return u.platformID
}

func (u *User) TicketsCreated() int {
	return u.ticketsCreated
}

func (u *User) TicketsClosed() int {
	return u.ticketsClosed
}

func (u *User) GamesPlayed() int {
	return u.gamesPlayed
}

func (u *User) RatingAverage() float64 {
	return u.ratingAverage
}

func (u *User) RatingCount() int {
	return u.ratingCount
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *User) SetID(id uint) error {
	if u.id != 0 {
		return fmt.Errorf("user ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("user ID cannot be zero")
	}
	u.id = id
	return nil
}

func (u *User) IncrementTicketsCreated() {
	u.ticketsCreated++
	u.updatedAt = time.Now()
}

func (u *User) IncrementTicketsClosed() {
	u.ticketsClosed++
	u.updatedAt = time.Now()
}

func (u *User) IncrementGamesPlayed() {
	u.gamesPlayed++
	u.updatedAt = time.Now()
}

// RecordRating folds a new 1-5 rating into the running mean. An out-of-range
// rating fails validation and leaves the aggregate untouched.
func (u *User) RecordRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}

	u.ratingAverage = (u.ratingAverage*float64(u.ratingCount) + float64(rating)) / float64(u.ratingCount+1)
	u.ratingCount++
	u.updatedAt = time.Now()

	return nil
}
