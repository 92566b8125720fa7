package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/domain/user"
	"helpbot/internal/shared/errors"
)

// lifecycleStore is a stateful in-memory double covering the slice of the
// repositories the full-lifecycle scenario touches.
type lifecycleStore struct {
	ticket *ticket.Ticket
	users  map[string]*user.User
}

func newLifecycleStore() *lifecycleStore {
	return &lifecycleStore{users: make(map[string]*user.User)}
}

func (s *lifecycleStore) ticketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		saveFn: func(ctx context.Context, tk *ticket.Ticket) error {
			s.ticket = tk
			return tk.SetID(1)
		},
		findByNumberFn: func(ctx context.Context, number string) (*ticket.Ticket, error) {
			return s.ticket, nil
		},
		findLatestClosedByUserFn: func(ctx context.Context, userID string) (*ticket.Ticket, error) {
			return s.ticket, nil
		},
		markClaimedFn: func(ctx context.Context, number, staffID string) (bool, error) {
			if err := s.ticket.Claim(staffID); err != nil {
				return false, nil
			}
			return true, nil
		},
		markClosedFn: func(ctx context.Context, number, staffID, reason string) (bool, error) {
			if err := s.ticket.Close(staffID, reason); err != nil {
				return false, nil
			}
			return true, nil
		},
	}
}

func (s *lifecycleStore) userRepo() *mockUserRepo {
	return &mockUserRepo{
		getOrCreateFn: func(ctx context.Context, platformID string) (*user.User, error) {
			if u, ok := s.users[platformID]; ok {
				return u, nil
			}
			u, err := user.NewUser(platformID)
			if err != nil {
				return nil, err
			}
			s.users[platformID] = u
			return u, nil
		},
	}
}

func TestTicketFullLifecycle(t *testing.T) {
	store := newLifecycleStore()
	ticketRepo := store.ticketRepo()
	userRepo := store.userRepo()
	gw := &mockGateway{}
	staff := &mockStaffChecker{staffIDs: map[string]bool{"S1": true}}
	dispatcher := &mockDispatcher{}

	create := newCreateUseCase(ticketRepo, userRepo, gw, &mockRateLimiter{}, dispatcher)
	claim := NewClaimTicketUseCase(ticketRepo, gw, staff, dispatcher, testLogger(), false)
	close_ := newCloseUseCaseWith(ticketRepo, userRepo, gw, staff, dispatcher)
	rate := NewRecordRatingUseCase(ticketRepo, userRepo, gw, dispatcher, testLogger())

	created, err := create.Execute(context.Background(), CreateTicketCommand{
		UserID:   "U1",
		Type:     "support",
		Priority: "normal",
		FormData: map[string]string{"problemDescription": "printer jam"},
	})
	require.NoError(t, err)
	assert.Equal(t, vo.StatusOpen, store.ticket.Status())

	_, err = claim.Execute(context.Background(), ClaimTicketCommand{Number: created.Number, StaffID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, vo.StatusClaimed, store.ticket.Status())
	assert.Equal(t, "S1", store.ticket.ClaimedBy())

	_, err = close_.Execute(context.Background(), CloseTicketCommand{Number: created.Number, StaffID: "S1", Reason: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, vo.StatusClosed, store.ticket.Status())
	assert.Equal(t, 1, store.users["U1"].TicketsClosed())

	rated, err := rate.Execute(context.Background(), RecordRatingCommand{UserID: "U1", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, rated.NewAverage)
	assert.Equal(t, 1, rated.NewCount)

	assert.Contains(t, dispatcher.eventTypes(), ticket.EventTypeTicketCreated)
	assert.Contains(t, dispatcher.eventTypes(), ticket.EventTypeTicketClaimed)
	assert.Contains(t, dispatcher.eventTypes(), ticket.EventTypeTicketClosed)
	assert.Contains(t, dispatcher.eventTypes(), ticket.EventTypeRatingSubmitted)
}

// TestOneActiveTicketInvariant drives create through the duplicate check
// against a live store row.
func TestOneActiveTicketInvariant(t *testing.T) {
	store := newLifecycleStore()
	ticketRepo := store.ticketRepo()
	ticketRepo.findActiveByUserIDFn = func(ctx context.Context, userID string) (*ticket.Ticket, error) {
		if store.ticket != nil && store.ticket.Status().IsActive() {
			return store.ticket, nil
		}
		return nil, notFound()
	}

	create := newCreateUseCase(ticketRepo, store.userRepo(), &mockGateway{}, &mockRateLimiter{}, &mockDispatcher{})

	_, err := create.Execute(context.Background(), CreateTicketCommand{UserID: "U1", Type: "support"})
	require.NoError(t, err)

	_, err = create.Execute(context.Background(), CreateTicketCommand{UserID: "U1", Type: "idea"})
	require.Error(t, err, "second active ticket for the same user is rejected")
}

func newCloseUseCaseWith(
	ticketRepo *mockTicketRepo,
	userRepo *mockUserRepo,
	gw *mockGateway,
	staff *mockStaffChecker,
	dispatcher *mockDispatcher,
) *CloseTicketUseCase {
	uc := NewCloseTicketUseCase(ticketRepo, userRepo, gw, staff, dispatcher, testLogger(), false, time.Second)
	uc.schedule = immediate
	return uc
}

func notFound() error {
	return errors.NewNotFoundError("no active ticket for user")
}
