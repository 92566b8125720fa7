package usecases

import (
	"context"
	"fmt"
	"time"

	"helpbot/internal/application/gateway"
	"helpbot/internal/domain/game"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/domain/user"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/goroutine"
	"helpbot/internal/shared/id"
	"helpbot/internal/shared/logger"
)

type CreateTicketCommand struct {
	UserID   string
	Type     string
	Priority string
	FormData map[string]string
}

type CreateTicketResult struct {
	Number    string
	ChannelID string
	Status    string
	CreatedAt time.Time
}

type CreateTicketUseCase struct {
	ticketRepo     ticket.Repository
	userRepo       user.Repository
	gw             gateway.Gateway
	limiter        RateLimiter
	dispatcher     events.EventDispatcher
	logger         logger.Interface
	gameOfferDelay time.Duration
	schedule       scheduleFunc
}

func NewCreateTicketUseCase(
	ticketRepo ticket.Repository,
	userRepo user.Repository,
	gw gateway.Gateway,
	limiter RateLimiter,
	dispatcher events.EventDispatcher,
	log logger.Interface,
	gameOfferDelay time.Duration,
) *CreateTicketUseCase {
	uc := &CreateTicketUseCase{
		ticketRepo:     ticketRepo,
		userRepo:       userRepo,
		gw:             gw,
		limiter:        limiter,
		dispatcher:     dispatcher,
		logger:         log,
		gameOfferDelay: gameOfferDelay,
	}
	uc.schedule = func(d time.Duration, fn func()) *time.Timer {
		return time.AfterFunc(d, func() {
			goroutine.SafeCall(uc.logger, "game-offer-prompt", fn)
		})
	}
	return uc
}

func (uc *CreateTicketUseCase) Execute(ctx context.Context, cmd CreateTicketCommand) (*CreateTicketResult, error) {
	uc.logger.Infow("executing create ticket use case", "user_id", cmd.UserID, "type", cmd.Type)

	allowed, err := uc.limiter.Allow(cmd.UserID)
	if err != nil {
		return nil, errors.NewInternalError("rate limiter unavailable")
	}
	if !allowed {
		wait, _ := uc.limiter.RetryAfter(cmd.UserID)
		return nil, errors.NewRateLimitedError(
			"too many ticket requests",
			fmt.Sprintf("retry in %s", wait.Round(time.Second)),
		)
	}

	ticketType := vo.TicketType(cmd.Type)
	if !ticketType.IsValid() {
		return nil, errors.NewInvalidInputError("invalid ticket type")
	}
	priority := vo.Priority(cmd.Priority)
	if cmd.Priority == "" {
		priority = vo.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, errors.NewInvalidInputError("invalid priority")
	}

	// The channel is the durable source of truth for "does this user already
	// have a ticket": check platform metadata first, then the store, so the
	// invariant holds even when the two have drifted.
	hasChannel, err := uc.gw.UserHasActiveTicketChannel(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to check active ticket channel", "error", err)
		return nil, errors.NewCollaboratorFailureError("could not verify existing tickets, try again")
	}
	if hasChannel {
		return nil, errors.NewInvalidTransitionError("you already have an active ticket")
	}
	if _, err := uc.ticketRepo.FindActiveByUserID(ctx, cmd.UserID); err == nil {
		return nil, errors.NewInvalidTransitionError("you already have an active ticket")
	} else if !errors.IsNotFoundError(err) {
		return nil, err
	}

	number := id.MustGenerateWithPrefix(id.PrefixTicket, id.DefaultLength)

	newTicket, err := ticket.NewTicket(number, cmd.UserID, ticketType, priority, cmd.FormData)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	channelID, err := uc.gw.CreateTicketChannel(ctx, number, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to create ticket channel", "number", number, "error", err)
		return nil, errors.NewCollaboratorFailureError("could not create the ticket channel, contact an administrator")
	}
	if err := newTicket.AttachChannel(channelID); err != nil {
		return nil, err
	}

	if err := uc.ticketRepo.Save(ctx, newTicket); err != nil {
		uc.logger.Errorw("failed to persist ticket", "number", number, "error", err)
		if delErr := uc.gw.DeleteChannel(ctx, channelID); delErr != nil {
			uc.logger.Warnw("failed to roll back ticket channel", "channel_id", channelID, "error", delErr)
		}
		return nil, errors.NewCollaboratorFailureError("could not save the ticket, try again")
	}

	uc.incrementCreatedCounter(ctx, cmd.UserID)

	if err := uc.dispatcher.PublishAll(newTicket.GetEvents()); err != nil {
		uc.logger.Warnw("failed to publish ticket events", "number", number, "error", err)
	}
	newTicket.ClearEvents()

	uc.notifyCreated(ctx, newTicket)
	uc.scheduleGameOffer(channelID, number)

	uc.logger.Infow("ticket created", "number", number, "channel_id", channelID)

	return &CreateTicketResult{
		Number:    newTicket.Number(),
		ChannelID: channelID,
		Status:    newTicket.Status().String(),
		CreatedAt: newTicket.CreatedAt(),
	}, nil
}

func (uc *CreateTicketUseCase) incrementCreatedCounter(ctx context.Context, userID string) {
	owner, err := uc.userRepo.GetOrCreate(ctx, userID)
	if err != nil {
		uc.logger.Warnw("failed to load user for counter update", "user_id", userID, "error", err)
		return
	}
	owner.IncrementTicketsCreated()
	if err := uc.userRepo.Update(ctx, owner); err != nil {
		uc.logger.Warnw("failed to update tickets_created counter", "user_id", userID, "error", err)
	}
}

// notifyCreated sends the out-of-band confirmations. Both are best effort.
func (uc *CreateTicketUseCase) notifyCreated(ctx context.Context, t *ticket.Ticket) {
	dm := gateway.Post{
		Title:       "Ticket created",
		Description: fmt.Sprintf("Your %s ticket %s is open. Our staff will be with you shortly.", t.Type().Label(), t.Number()),
	}
	if err := uc.gw.SendDirectMessage(ctx, t.UserID(), dm); err != nil {
		uc.logger.Warnw("failed to DM ticket confirmation", "number", t.Number(), "error", err)
	}

	logPost := gateway.Post{
		Title: "Ticket opened",
		Fields: []gateway.Field{
			{Name: "Number", Value: t.Number()},
			{Name: "User", Value: t.UserID()},
			{Name: "Type", Value: t.Type().Label()},
			{Name: "Priority", Value: t.Priority().String()},
		},
	}
	if err := uc.gw.PostLog(ctx, gateway.LogOpen, logPost); err != nil {
		uc.logger.Warnw("failed to post open log", "number", t.Number(), "error", err)
	}
}

// scheduleGameOffer posts the distraction-game menu into the new channel
// after a fixed delay, decoupling ticket creation from game-offer latency.
func (uc *CreateTicketUseCase) scheduleGameOffer(channelID, number string) {
	if uc.gameOfferDelay <= 0 {
		return
	}

	uc.schedule(uc.gameOfferDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := uc.gw.PostMessage(ctx, channelID, GameOfferPost()); err != nil {
			uc.logger.Warnw("failed to post game offer", "number", number, "error", err)
		}
	})
}

// GameOfferPost builds the game-selection menu offered in ticket channels.
func GameOfferPost() gateway.Post {
	options := make([]gateway.MenuOption, 0, len(game.AllGameTypes()))
	for _, gameType := range game.AllGameTypes() {
		options = append(options, gateway.MenuOption{
			Label: gameType.Label(),
			Value: gameType.String(),
		})
	}

	return gateway.Post{
		Title:       "Bored while you wait?",
		Description: "Pick a quick game to pass the time.",
		Menu: &gateway.Menu{
			Action:      "game_select",
			Placeholder: "Choose a game",
			Options:     options,
		},
	}
}
