package ticket

import (
	"context"

	vo "helpbot/internal/domain/ticket/valueobjects"
)

// Repository persists tickets. MarkClaimed and MarkClosed are conditional
// status transitions: the WHERE clause on the current status makes the
// affected-row count the source of truth for success, so concurrent claims
// or closes resolve to exactly one winner without a read-modify-write race.
type Repository interface {
	Save(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
	FindByID(ctx context.Context, id uint) (*Ticket, error)
	FindByNumber(ctx context.Context, number string) (*Ticket, error)
	FindByChannelID(ctx context.Context, channelID string) (*Ticket, error)

	// FindActiveByUserID returns the user's open or claimed ticket, or a
	// not-found error. The one-active-ticket invariant keeps this unique.
	FindActiveByUserID(ctx context.Context, userID string) (*Ticket, error)

	// FindLatestClosedByUserID returns the user's most recently closed ticket.
	// Ratings are addressed to this ticket at lookup time.
	FindLatestClosedByUserID(ctx context.Context, userID string) (*Ticket, error)

	// MarkClaimed transitions number from open to claimed. Returns false when
	// the ticket was not open (no mutation happened).
	MarkClaimed(ctx context.Context, number, staffID string) (bool, error)

	// MarkClosed transitions number from open or claimed to closed. Returns
	// false when the ticket was already closed (no mutation happened).
	MarkClosed(ctx context.Context, number, staffID, reason string) (bool, error)

	// SetTranscriptRef records the transcript location, best effort.
	SetTranscriptRef(ctx context.Context, number, ref string) error

	// CountClaimedByStaff returns per-staff counts of currently claimed
	// tickets, used by the advisory least-loaded auto-assign heuristic.
	CountClaimedByStaff(ctx context.Context) (map[string]int, error)

	List(ctx context.Context, filter Filter) ([]*Ticket, int64, error)
}

type Filter struct {
	Status   *vo.Status
	Type     *vo.TicketType
	Priority *vo.Priority
	UserID   *string
	Page     int
	PageSize int
}
