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
	"helpbot/internal/shared/logger"
)

type RecordRatingCommand struct {
	UserID string
	Rating int
}

// StarLogStep is one attempt of the star-log fallback chain. Each step's
// failure is independently observable instead of being swallowed.
type StarLogStep struct {
	Name string
	Err  error
}

type RecordRatingResult struct {
	TicketNumber string
	Rating       int
	NewAverage   float64
	NewCount     int

	// StarLog records every fallback step attempted, in order. Posted is
	// true when some step succeeded.
	StarLog       []StarLogStep
	StarLogPosted bool
}

type RecordRatingUseCase struct {
	ticketRepo ticket.Repository
	userRepo   user.Repository
	gw         gateway.Gateway
	dispatcher events.EventDispatcher
	logger     logger.Interface
}

func NewRecordRatingUseCase(
	ticketRepo ticket.Repository,
	userRepo user.Repository,
	gw gateway.Gateway,
	dispatcher events.EventDispatcher,
	log logger.Interface,
) *RecordRatingUseCase {
	return &RecordRatingUseCase{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		gw:         gw,
		dispatcher: dispatcher,
		logger:     log,
	}
}

func (uc *RecordRatingUseCase) Execute(ctx context.Context, cmd RecordRatingCommand) (*RecordRatingResult, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, errors.NewInvalidInputError("rating must be between 1 and 5")
	}

	// Ratings are addressed to the user's most recent closed ticket at
	// lookup time, never a held reference: a close racing with a rating for
	// an older ticket resolves here.
	t, err := uc.ticketRepo.FindLatestClosedByUserID(ctx, cmd.UserID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewInvalidTransitionError("no closed ticket to rate")
		}
		return nil, err
	}

	rater, err := uc.userRepo.GetOrCreate(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := rater.RecordRating(cmd.Rating); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if err := uc.userRepo.Update(ctx, rater); err != nil {
		return nil, err
	}

	if err := uc.dispatcher.Publish(ticket.NewRatingSubmittedEvent(t.Number(), cmd.UserID, cmd.Rating, time.Now())); err != nil {
		uc.logger.Warnw("failed to publish rating event", "number", t.Number(), "error", err)
	}

	steps, posted := uc.postStarLog(ctx, t, cmd.Rating)

	uc.logger.Infow("rating recorded",
		"user_id", cmd.UserID,
		"number", t.Number(),
		"rating", cmd.Rating,
		"new_average", rater.RatingAverage(),
	)

	return &RecordRatingResult{
		TicketNumber:  t.Number(),
		Rating:        cmd.Rating,
		NewAverage:    rater.RatingAverage(),
		NewCount:      rater.RatingCount(),
		StarLog:       steps,
		StarLogPosted: posted,
	}, nil
}

// postStarLog walks the fallback chain: the configured star log, then the
// close log, then the channel of the rated ticket itself. Resolution failure
// never fails the rating record.
func (uc *RecordRatingUseCase) postStarLog(ctx context.Context, t *ticket.Ticket, rating int) ([]StarLogStep, bool) {
	post := gateway.Post{
		Title: "New support rating",
		Fields: []gateway.Field{
			{Name: "Ticket", Value: t.Number()},
			{Name: "User", Value: t.UserID()},
			{Name: "Rating", Value: strings.Repeat("⭐", rating) + fmt.Sprintf(" (%d/5)", rating)},
		},
	}

	var steps []StarLogStep

	err := uc.gw.PostLog(ctx, gateway.LogStar, post)
	steps = append(steps, StarLogStep{Name: "star_log", Err: err})
	if err == nil {
		return steps, true
	}

	err = uc.gw.PostLog(ctx, gateway.LogClose, post)
	steps = append(steps, StarLogStep{Name: "close_log", Err: err})
	if err == nil {
		return steps, true
	}

	if t.ChannelID() != "" {
		err = uc.gw.PostMessage(ctx, t.ChannelID(), post)
		steps = append(steps, StarLogStep{Name: "ticket_channel", Err: err})
		if err == nil {
			return steps, true
		}
	}

	uc.logger.Warnw("star log: every fallback step failed", "number", t.Number())
	return steps, false
}
