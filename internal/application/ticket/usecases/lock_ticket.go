package usecases

import (
	"context"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

type LockTicketCommand struct {
	Number  string
	StaffID string
}

type LockTicketResult struct {
	Number string
	Locked bool
}

// LockTicketUseCase toggles the ticket channel to staff-only visibility.
// Ticket status is untouched.
type LockTicketUseCase struct {
	ticketRepo ticket.Repository
	gw         gateway.Gateway
	staff      StaffChecker
	logger     logger.Interface
}

func NewLockTicketUseCase(
	ticketRepo ticket.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	log logger.Interface,
) *LockTicketUseCase {
	return &LockTicketUseCase{
		ticketRepo: ticketRepo,
		gw:         gw,
		staff:      staff,
		logger:     log,
	}
}

func (uc *LockTicketUseCase) Execute(ctx context.Context, cmd LockTicketCommand) (*LockTicketResult, error) {
	if err := setTicketLock(ctx, uc.ticketRepo, uc.gw, uc.staff, cmd.Number, cmd.StaffID, true); err != nil {
		return nil, err
	}

	uc.logger.Infow("ticket channel locked", "number", cmd.Number, "staff_id", cmd.StaffID)
	return &LockTicketResult{Number: cmd.Number, Locked: true}, nil
}

// setTicketLock is the shared staff-gated visibility toggle.
func setTicketLock(
	ctx context.Context,
	ticketRepo ticket.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	number, staffID string,
	locked bool,
) error {
	isStaff, err := staff.IsStaff(ctx, staffID)
	if err != nil {
		return errors.NewCollaboratorFailureError("could not verify staff membership")
	}
	if !isStaff {
		return errors.NewForbiddenError("only staff can change channel visibility")
	}

	t, err := ticketRepo.FindByNumber(ctx, number)
	if err != nil {
		return err
	}
	if t.ChannelID() == "" {
		return errors.NewInvalidTransitionError("ticket has no channel")
	}

	if err := gw.SetChannelVisibility(ctx, t.ChannelID(), locked); err != nil {
		return errors.NewCollaboratorFailureError("could not change channel visibility")
	}

	return nil
}
