package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/errors"
)

func TestClaimTicket_StaffGate(t *testing.T) {
	uc := NewClaimTicketUseCase(&mockTicketRepo{}, &mockGateway{}, &mockStaffChecker{}, &mockDispatcher{}, testLogger(), false)

	_, err := uc.Execute(context.Background(), ClaimTicketCommand{Number: "tk_1", StaffID: "intruder"})
	assert.True(t, errors.IsForbiddenError(err))
}

func TestClaimTicket_ConditionalTransition(t *testing.T) {
	staff := &mockStaffChecker{staffIDs: map[string]bool{"s1": true}}

	t.Run("open ticket claims", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		uc := NewClaimTicketUseCase(&mockTicketRepo{}, &mockGateway{}, staff, dispatcher, testLogger(), false)

		result, err := uc.Execute(context.Background(), ClaimTicketCommand{Number: "tk_1", StaffID: "s1"})
		require.NoError(t, err)
		assert.Equal(t, "s1", result.ClaimedBy)
		assert.Contains(t, dispatcher.eventTypes(), ticket.EventTypeTicketClaimed)
	})

	t.Run("non-open ticket rejects without mutation", func(t *testing.T) {
		repo := &mockTicketRepo{
			markClaimedFn: func(ctx context.Context, number, staffID string) (bool, error) {
				return false, nil
			},
		}
		dispatcher := &mockDispatcher{}
		uc := NewClaimTicketUseCase(repo, &mockGateway{}, staff, dispatcher, testLogger(), false)

		_, err := uc.Execute(context.Background(), ClaimTicketCommand{Number: "tk_1", StaffID: "s1"})
		assert.True(t, errors.IsInvalidTransitionError(err))
		assert.Empty(t, dispatcher.published)
	})
}

func TestClaimTicket_AutoAssignAdvisory(t *testing.T) {
	staff := &mockStaffChecker{staffIDs: map[string]bool{"s1": true}}

	t.Run("least-loaded staff member is notified", func(t *testing.T) {
		var notified string
		gw := &mockGateway{
			listStaffMembersFn: func(ctx context.Context) ([]gateway.StaffMember, error) {
				return []gateway.StaffMember{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}, nil
			},
			sendDirectMessageFn: func(ctx context.Context, userID string, post gateway.Post) error {
				notified = userID
				return nil
			},
		}
		repo := &mockTicketRepo{
			countClaimedByStaffFn: func(ctx context.Context) (map[string]int, error) {
				return map[string]int{"s1": 3, "s2": 1, "s3": 2}, nil
			},
		}
		uc := NewClaimTicketUseCase(repo, gw, staff, &mockDispatcher{}, testLogger(), true)

		result, err := uc.Execute(context.Background(), ClaimTicketCommand{Number: "tk_1", StaffID: "s1"})
		require.NoError(t, err)
		assert.Equal(t, "s2", result.AutoAssignNotified)
		assert.Equal(t, "s2", notified)
	})

	t.Run("notification failure never fails the claim", func(t *testing.T) {
		gw := &mockGateway{
			listStaffMembersFn: func(ctx context.Context) ([]gateway.StaffMember, error) {
				return nil, errors.NewCollaboratorFailureError("platform down")
			},
		}
		uc := NewClaimTicketUseCase(&mockTicketRepo{}, gw, staff, &mockDispatcher{}, testLogger(), true)

		result, err := uc.Execute(context.Background(), ClaimTicketCommand{Number: "tk_1", StaffID: "s1"})
		require.NoError(t, err)
		assert.Empty(t, result.AutoAssignNotified)
	})
}
