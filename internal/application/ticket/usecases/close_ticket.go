package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/domain/user"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/goroutine"
	"helpbot/internal/shared/logger"
)

type CloseTicketCommand struct {
	Number  string
	StaffID string
	Reason  string
}

type CloseTicketResult struct {
	Number        string
	ClosedBy      string
	TranscriptRef string
}

type CloseTicketUseCase struct {
	ticketRepo        ticket.Repository
	userRepo          user.Repository
	gw                gateway.Gateway
	staff             StaffChecker
	dispatcher        events.EventDispatcher
	logger            logger.Interface
	transcriptEnabled bool
	channelGrace      time.Duration
	schedule          scheduleFunc
}

func NewCloseTicketUseCase(
	ticketRepo ticket.Repository,
	userRepo user.Repository,
	gw gateway.Gateway,
	staff StaffChecker,
	dispatcher events.EventDispatcher,
	log logger.Interface,
	transcriptEnabled bool,
	channelGrace time.Duration,
) *CloseTicketUseCase {
	uc := &CloseTicketUseCase{
		ticketRepo:        ticketRepo,
		userRepo:          userRepo,
		gw:                gw,
		staff:             staff,
		dispatcher:        dispatcher,
		logger:            log,
		transcriptEnabled: transcriptEnabled,
		channelGrace:      channelGrace,
	}
	uc.schedule = func(d time.Duration, fn func()) *time.Timer {
		return time.AfterFunc(d, func() {
			goroutine.SafeCall(uc.logger, "channel-deletion", fn)
		})
	}
	return uc
}

func (uc *CloseTicketUseCase) Execute(ctx context.Context, cmd CloseTicketCommand) (*CloseTicketResult, error) {
	isStaff, err := uc.staff.IsStaff(ctx, cmd.StaffID)
	if err != nil {
		return nil, errors.NewCollaboratorFailureError("could not verify staff membership")
	}
	if !isStaff {
		return nil, errors.NewForbiddenError("only staff can close tickets")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, errors.NewInvalidInputError("close reason is required")
	}

	t, err := uc.ticketRepo.FindByNumber(ctx, cmd.Number)
	if err != nil {
		return nil, err
	}

	closed, err := uc.ticketRepo.MarkClosed(ctx, cmd.Number, cmd.StaffID, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, errors.NewInvalidTransitionError("ticket is already closed")
	}

	uc.incrementClosedCounter(ctx, t.UserID())

	if err := uc.dispatcher.Publish(ticket.NewTicketClosedEvent(cmd.Number, t.UserID(), cmd.StaffID, cmd.Reason, time.Now())); err != nil {
		uc.logger.Warnw("failed to publish close event", "number", cmd.Number, "error", err)
	}

	// Everything below is a side effect of an already-committed close.
	transcriptRef := ""
	if uc.transcriptEnabled {
		transcriptRef = uc.captureTranscript(ctx, t)
	}

	uc.postCloseLog(ctx, cmd, transcriptRef)
	uc.sendRatingRequest(ctx, t.UserID(), cmd.Number)
	uc.scheduleChannelDeletion(t.ChannelID(), cmd.Number)

	uc.logger.Infow("ticket closed", "number", cmd.Number, "staff_id", cmd.StaffID, "reason", cmd.Reason)

	return &CloseTicketResult{
		Number:        cmd.Number,
		ClosedBy:      cmd.StaffID,
		TranscriptRef: transcriptRef,
	}, nil
}

func (uc *CloseTicketUseCase) incrementClosedCounter(ctx context.Context, userID string) {
	owner, err := uc.userRepo.GetOrCreate(ctx, userID)
	if err != nil {
		uc.logger.Warnw("failed to load user for counter update", "user_id", userID, "error", err)
		return
	}
	owner.IncrementTicketsClosed()
	if err := uc.userRepo.Update(ctx, owner); err != nil {
		uc.logger.Warnw("failed to update tickets_closed counter", "user_id", userID, "error", err)
	}
}

// captureTranscript serializes the channel history newest-last, uploads it,
// and records the reference. A failure at any step logs and returns empty.
func (uc *CloseTicketUseCase) captureTranscript(ctx context.Context, t *ticket.Ticket) string {
	entries, err := uc.gw.FetchChannelHistory(ctx, t.ChannelID(), 0)
	if err != nil {
		uc.logger.Warnw("transcript: failed to fetch history", "number", t.Number(), "error", err)
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transcript for %s (user %s)\n\n", t.Number(), t.UserID())
	for _, entry := range entries {
		fmt.Fprintf(&b, "[%s] %s: %s\n", entry.SentAt.Format(time.RFC3339), entry.AuthorName, entry.Text)
		for _, ref := range entry.AttachmentRefs {
			fmt.Fprintf(&b, "    attachment: %s\n", ref)
		}
	}

	ref, err := uc.gw.UploadTranscript(ctx, t.Number(), []byte(b.String()))
	if err != nil {
		uc.logger.Warnw("transcript: upload failed", "number", t.Number(), "error", err)
		return ""
	}

	if err := uc.ticketRepo.SetTranscriptRef(ctx, t.Number(), ref); err != nil {
		uc.logger.Warnw("transcript: failed to record reference", "number", t.Number(), "error", err)
	}

	return ref
}

func (uc *CloseTicketUseCase) postCloseLog(ctx context.Context, cmd CloseTicketCommand, transcriptRef string) {
	fields := []gateway.Field{
		{Name: "Number", Value: cmd.Number},
		{Name: "Closed by", Value: cmd.StaffID},
		{Name: "Reason", Value: cmd.Reason},
	}
	if transcriptRef != "" {
		fields = append(fields, gateway.Field{Name: "Transcript", Value: transcriptRef})
	}

	post := gateway.Post{Title: "Ticket closed", Fields: fields}
	if err := uc.gw.PostLog(ctx, gateway.LogClose, post); err != nil {
		uc.logger.Warnw("failed to post close log", "number", cmd.Number, "error", err)
	}
}

func (uc *CloseTicketUseCase) sendRatingRequest(ctx context.Context, userID, number string) {
	buttons := make([]gateway.Button, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		buttons = append(buttons, gateway.Button{
			Label:  strings.Repeat("⭐", rating),
			Action: fmt.Sprintf("rate_%d", rating),
		})
	}

	post := gateway.Post{
		Title:       "How did we do?",
		Description: fmt.Sprintf("Your ticket %s is closed. Rate your support experience from 1 to 5.", number),
		Buttons:     [][]gateway.Button{buttons},
	}
	if err := uc.gw.SendDirectMessage(ctx, userID, post); err != nil {
		uc.logger.Warnw("failed to send rating request", "number", number, "error", err)
	}
}

// scheduleChannelDeletion removes the channel after a grace delay so
// participants can read the final message first.
func (uc *CloseTicketUseCase) scheduleChannelDeletion(channelID, number string) {
	if channelID == "" {
		return
	}

	uc.schedule(uc.channelGrace, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := uc.gw.DeleteChannel(ctx, channelID); err != nil {
			uc.logger.Warnw("failed to delete ticket channel", "number", number, "error", err)
		}
	})
}
