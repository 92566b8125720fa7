package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/shared/errors"
)

func TestLockUnlockTicket(t *testing.T) {
	tk, err := ticket.NewTicket("tk_1", "u1", vo.TypeSupport, vo.PriorityNormal, nil)
	require.NoError(t, err)
	require.NoError(t, tk.AttachChannel("77"))

	ticketRepo := &mockTicketRepo{
		findByNumberFn: func(ctx context.Context, number string) (*ticket.Ticket, error) {
			return tk, nil
		},
	}
	staff := &mockStaffChecker{staffIDs: map[string]bool{"s1": true}}

	var lastVisibility *bool
	gw := &mockGateway{
		setChannelVisibilityFn: func(ctx context.Context, channelID string, staffOnly bool) error {
			lastVisibility = &staffOnly
			return nil
		},
	}

	lock := NewLockTicketUseCase(ticketRepo, gw, staff, testLogger())
	unlock := NewUnlockTicketUseCase(ticketRepo, gw, staff, testLogger())

	lockResult, err := lock.Execute(context.Background(), LockTicketCommand{Number: "tk_1", StaffID: "s1"})
	require.NoError(t, err)
	assert.True(t, lockResult.Locked)
	require.NotNil(t, lastVisibility)
	assert.True(t, *lastVisibility)
	assert.Equal(t, vo.StatusOpen, tk.Status(), "lock never touches ticket status")

	unlockResult, err := unlock.Execute(context.Background(), UnlockTicketCommand{Number: "tk_1", StaffID: "s1"})
	require.NoError(t, err)
	assert.False(t, unlockResult.Locked)
	assert.False(t, *lastVisibility)

	_, err = lock.Execute(context.Background(), LockTicketCommand{Number: "tk_1", StaffID: "intruder"})
	assert.True(t, errors.IsForbiddenError(err))
}

func TestRequestClose(t *testing.T) {
	tk, err := ticket.NewTicket("tk_1", "u1", vo.TypeSupport, vo.PriorityNormal, nil)
	require.NoError(t, err)

	ticketRepo := &mockTicketRepo{
		findByNumberFn: func(ctx context.Context, number string) (*ticket.Ticket, error) {
			return tk, nil
		},
	}
	staff := &mockStaffChecker{staffIDs: map[string]bool{"s1": true}}

	uc := NewRequestCloseUseCase(ticketRepo, &mockGateway{}, staff, testLogger())

	result, err := uc.Execute(context.Background(), RequestCloseCommand{Number: "tk_1", StaffID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, CloseReasonFormID, result.FormID)

	_, err = uc.Execute(context.Background(), RequestCloseCommand{Number: "tk_1", StaffID: "u1"})
	assert.True(t, errors.IsForbiddenError(err))
}
