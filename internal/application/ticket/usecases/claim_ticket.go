package usecases

import (
	"context"
	"time"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

type ClaimTicketCommand struct {
	Number  string
	StaffID string
}

type ClaimTicketResult struct {
	Number    string
	ClaimedBy string

	// AutoAssignNotified names the least-loaded staff member who was
	// notified, empty when auto-assign is disabled or the notification
	// failed. Advisory only.
	AutoAssignNotified string
}

type ClaimTicketUseCase struct {
	ticketRepo        ticket.Repository
	gw                gateway.Gateway
	staff             StaffChecker
	dispatcher        events.EventDispatcher
	logger            logger.Interface
	autoAssignEnabled bool
}

func NewClaimTicketUseCase(
	ticketRepo ticket.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	dispatcher events.EventDispatcher,
	log logger.Interface,
	autoAssignEnabled bool,
) *ClaimTicketUseCase {
	return &ClaimTicketUseCase{
		ticketRepo:        ticketRepo,
		gw:                gw,
		staff:             staff,
		dispatcher:        dispatcher,
		logger:            log,
		autoAssignEnabled: autoAssignEnabled,
	}
}

func (uc *ClaimTicketUseCase) Execute(ctx context.Context, cmd ClaimTicketCommand) (*ClaimTicketResult, error) {
	isStaff, err := uc.staff.IsStaff(ctx, cmd.StaffID)
	if err != nil {
		return nil, errors.NewCollaboratorFailureError("could not verify staff membership")
	}
	if !isStaff {
		return nil, errors.NewForbiddenError("only staff can claim tickets")
	}

	// Conditional transition: the affected-row count decides, not a prior
	// read, so concurrent claims resolve to exactly one winner.
	claimed, err := uc.ticketRepo.MarkClaimed(ctx, cmd.Number, cmd.StaffID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, errors.NewInvalidTransitionError("ticket is not open")
	}

	if err := uc.dispatcher.Publish(ticket.NewTicketClaimedEvent(cmd.Number, cmd.StaffID, time.Now())); err != nil {
		uc.logger.Warnw("failed to publish claim event", "number", cmd.Number, "error", err)
	}

	uc.logClaim(ctx, cmd)

	result := &ClaimTicketResult{
		Number:    cmd.Number,
		ClaimedBy: cmd.StaffID,
	}
	if uc.autoAssignEnabled {
		result.AutoAssignNotified = uc.notifyLeastLoaded(ctx, cmd.Number)
	}

	uc.logger.Infow("ticket claimed", "number", cmd.Number, "staff_id", cmd.StaffID)
	return result, nil
}

func (uc *ClaimTicketUseCase) logClaim(ctx context.Context, cmd ClaimTicketCommand) {
	post := gateway.Post{
		Title: "Ticket claimed",
		Fields: []gateway.Field{
			{Name: "Number", Value: cmd.Number},
			{Name: "Staff", Value: cmd.StaffID},
		},
	}
	if err := uc.gw.PostLog(ctx, gateway.LogOpen, post); err != nil {
		uc.logger.Warnw("failed to post claim log", "number", cmd.Number, "error", err)
	}

	if t, err := uc.ticketRepo.FindByNumber(ctx, cmd.Number); err == nil && t.ChannelID() != "" {
		notice := gateway.Post{
			Description: cmd.StaffID + " is now handling this ticket.",
		}
		if err := uc.gw.PostMessage(ctx, t.ChannelID(), notice); err != nil {
			uc.logger.Warnw("failed to post claim notice", "number", cmd.Number, "error", err)
		}
	}
}

// notifyLeastLoaded DMs the staff member with the fewest claimed tickets.
// Best effort and advisory; any failure leaves the claim intact.
func (uc *ClaimTicketUseCase) notifyLeastLoaded(ctx context.Context, number string) string {
	members, err := uc.gw.ListStaffMembers(ctx)
	if err != nil {
		uc.logger.Warnw("auto-assign: failed to list staff", "error", err)
		return ""
	}
	if len(members) == 0 {
		return ""
	}

	counts, err := uc.ticketRepo.CountClaimedByStaff(ctx)
	if err != nil {
		uc.logger.Warnw("auto-assign: failed to count claimed tickets", "error", err)
		return ""
	}

	best := members[0]
	for _, m := range members[1:] {
		if counts[m.ID] < counts[best.ID] {
			best = m
		}
	}

	post := gateway.Post{
		Title:       "You are the least-loaded staff member",
		Description: "Ticket " + number + " was just claimed; consider picking up the next one.",
	}
	if err := uc.gw.SendDirectMessage(ctx, best.ID, post); err != nil {
		uc.logger.Warnw("auto-assign: notification failed", "staff_id", best.ID, "error", err)
		return ""
	}

	return best.ID
}
