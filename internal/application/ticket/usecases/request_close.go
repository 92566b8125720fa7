package usecases

import (
	"context"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

type RequestCloseCommand struct {
	Number  string
	StaffID string
}

type RequestCloseResult struct {
	Number string

	// FormID is the form the platform should open to collect the free-text
	// close reason. The reason cannot ride on the close button itself.
	FormID string
}

// CloseReasonFormID identifies the close-reason form in inbound submissions.
const CloseReasonFormID = "close_reason_modal"

type RequestCloseUseCase struct {
	ticketRepo ticket.Repository
	gw         gateway.Gateway
	staff      StaffChecker
	logger     logger.Interface
}

func NewRequestCloseUseCase(
	ticketRepo ticket.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	log logger.Interface,
) *RequestCloseUseCase {
	return &RequestCloseUseCase{
		ticketRepo: ticketRepo,
		gw:         gw,
		staff:      staff,
		logger:     log,
	}
}

func (uc *RequestCloseUseCase) Execute(ctx context.Context, cmd RequestCloseCommand) (*RequestCloseResult, error) {
	isStaff, err := uc.staff.IsStaff(ctx, cmd.StaffID)
	if err != nil {
		return nil, errors.NewCollaboratorFailureError("could not verify staff membership")
	}
	if !isStaff {
		return nil, errors.NewForbiddenError("only staff can close tickets")
	}

	t, err := uc.ticketRepo.FindByNumber(ctx, cmd.Number)
	if err != nil {
		return nil, err
	}
	if !t.Status().IsActive() {
		return nil, errors.NewInvalidTransitionError("ticket is already closed")
	}

	uc.logger.Infow("close reason requested", "number", cmd.Number, "staff_id", cmd.StaffID)

	return &RequestCloseResult{
		Number: cmd.Number,
		FormID: CloseReasonFormID,
	}, nil
}
