package usecases

import (
	"context"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/logger"
)

type UnlockTicketCommand struct {
	Number  string
	StaffID string
}

type UnlockTicketResult struct {
	Number string
	Locked bool
}

type UnlockTicketUseCase struct {
	ticketRepo ticket.Repository
	gw         gateway.Gateway
	staff      StaffChecker
	logger     logger.Interface
}

func NewUnlockTicketUseCase(
	ticketRepo ticket.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	log logger.Interface,
) *UnlockTicketUseCase {
	return &UnlockTicketUseCase{
		ticketRepo: ticketRepo,
		gw:         gw,
		staff:      staff,
		logger:     log,
	}
}

func (uc *UnlockTicketUseCase) Execute(ctx context.Context, cmd UnlockTicketCommand) (*UnlockTicketResult, error) {
	if err := setTicketLock(ctx, uc.ticketRepo, uc.gw, uc.staff, cmd.Number, cmd.StaffID, false); err != nil {
		return nil, err
	}

	uc.logger.Infow("ticket channel unlocked", "number", cmd.Number, "staff_id", cmd.StaffID)
	return &UnlockTicketResult{Number: cmd.Number, Locked: false}, nil
}
