package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	appgame "helpbot/internal/application/game"
	"helpbot/internal/application/gateway"
	"helpbot/internal/application/ticket/usecases"
	domaingame "helpbot/internal/domain/game"
	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/telegram"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/errors"
	"helpbot/internal/shared/logger"
)

// Responder is the raw outbound slice the dispatcher replies through.
type Responder interface {
	SendMessage(ctx context.Context, chatID, threadID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error
}

// TranscriptRecorder feeds user messages into the channel transcript buffer.
type TranscriptRecorder interface {
	RecordInbound(channelID string, entry gateway.HistoryEntry)
}

// GameEngine is the game-service slice the dispatcher routes into.
type GameEngine interface {
	Start(ctx context.Context, userID, channelID, gameType string) (*appgame.StartResult, error)
	HandleButton(ctx context.Context, userID string, gameType domaingame.GameType, payload string) (*appgame.MoveResult, error)
	HandleMessage(ctx context.Context, userID, channelID, text string) (*appgame.MoveResult, error)
}

// Dispatcher routes decoded updates into the use cases. One instance serves
// both inbound paths.
type Dispatcher struct {
	createTicket *usecases.CreateTicketUseCase
	claimTicket  *usecases.ClaimTicketUseCase
	requestClose *usecases.RequestCloseUseCase
	closeTicket  *usecases.CloseTicketUseCase
	recordRating *usecases.RecordRatingUseCase
	lockTicket   *usecases.LockTicketUseCase
	unlockTicket *usecases.UnlockTicketUseCase

	games      GameEngine
	ticketRepo ticket.Repository
	recorder   TranscriptRecorder
	responder  Responder
	config     sharedConfig.TelegramConfig
	logger     logger.Interface
}

func NewDispatcher(
	createTicket *usecases.CreateTicketUseCase,
	claimTicket *usecases.ClaimTicketUseCase,
	requestClose *usecases.RequestCloseUseCase,
	closeTicket *usecases.CloseTicketUseCase,
	recordRating *usecases.RecordRatingUseCase,
	lockTicket *usecases.LockTicketUseCase,
	unlockTicket *usecases.UnlockTicketUseCase,
	games GameEngine,
	ticketRepo ticket.Repository,
	recorder TranscriptRecorder,
	responder Responder,
	config sharedConfig.TelegramConfig,
	log logger.Interface,
) *Dispatcher {
	return &Dispatcher{
		createTicket: createTicket,
		claimTicket:  claimTicket,
		requestClose: requestClose,
		closeTicket:  closeTicket,
		recordRating: recordRating,
		lockTicket:   lockTicket,
		unlockTicket: unlockTicket,
		games:        games,
		ticketRepo:   ticketRepo,
		recorder:     recorder,
		responder:    responder,
		config:       config,
		logger:       log.Named("bot"),
	}
}

// HandleUpdate implements telegram.UpdateHandler.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	in, ok := Decode(update)
	if !ok {
		return nil
	}

	switch in.Kind {
	case KindButtonPress:
		return d.handleButton(ctx, in)
	default:
		return d.handleMessage(ctx, in)
	}
}

func (d *Dispatcher) handleButton(ctx context.Context, in *Inbound) error {
	switch {
	case in.Action == "ticket_type":
		return d.onTicketTypeSelected(ctx, in)
	case in.Action == "game_select":
		return d.onGameStart(ctx, in, in.Value)
	case strings.HasPrefix(in.Action, "play_again_"):
		return d.onGameStart(ctx, in, strings.TrimPrefix(in.Action, "play_again_"))
	case in.Action == "change_game":
		return d.replyPost(ctx, in, usecases.GameOfferPost())
	case in.Action == "claim_ticket":
		return d.onClaim(ctx, in, in.Value)
	case in.Action == "close_ticket":
		return d.onRequestClose(ctx, in, in.Value)
	case in.Action == "lock_ticket":
		return d.onLock(ctx, in, in.Value, true)
	case in.Action == "unlock_ticket":
		return d.onLock(ctx, in, in.Value, false)
	case strings.HasPrefix(in.Action, "rate_"):
		return d.onRate(ctx, in, strings.TrimPrefix(in.Action, "rate_"))
	case strings.HasPrefix(in.Action, "ttt_"):
		return d.onGameButton(ctx, in, domaingame.TypeTicTacToe, strings.TrimPrefix(in.Action, "ttt_"))
	case strings.HasPrefix(in.Action, "rps_"):
		return d.onGameButton(ctx, in, domaingame.TypeRPS, strings.TrimPrefix(in.Action, "rps_"))
	case strings.HasPrefix(in.Action, "trivia_"):
		return d.onGameButton(ctx, in, domaingame.TypeTrivia, strings.TrimPrefix(in.Action, "trivia_"))
	case strings.HasPrefix(in.Action, "hangman_"):
		return d.onGameButton(ctx, in, domaingame.TypeHangman, strings.TrimPrefix(in.Action, "hangman_"))
	default:
		d.logger.Warnw("unknown callback action", "action", in.Action, "user_id", in.UserID)
		return d.answer(ctx, in, "This button is no longer active.", true)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, in *Inbound) error {
	if strings.HasPrefix(in.Text, "/") {
		return d.handleCommand(ctx, in)
	}

	channelID := d.channelID(in)

	// Messages inside ticket topics feed the transcript.
	if channelID != "" {
		d.recorder.RecordInbound(channelID, gateway.HistoryEntry{
			AuthorID:       in.UserID,
			AuthorName:     in.UserName,
			Text:           in.Text,
			SentAt:         time.Now(),
			AttachmentRefs: in.AttachmentRefs,
		})
		d.captureFormAnswer(ctx, channelID, in)
	}

	result, err := d.games.HandleMessage(ctx, in.UserID, d.originKey(in), in.Text)
	if err != nil {
		return d.reply(ctx, in, errors.UserMessage(err))
	}
	if result == nil {
		// Not addressed to a game; nothing to do.
		return nil
	}
	return d.replyPost(ctx, in, result.Response)
}

// captureFormAnswer stores the ticket owner's first message in a fresh topic
// as the creation-form description. Later messages leave the form untouched.
func (d *Dispatcher) captureFormAnswer(ctx context.Context, channelID string, in *Inbound) {
	t, err := d.ticketRepo.FindByChannelID(ctx, channelID)
	if err != nil || t.UserID() != in.UserID {
		return
	}
	if !t.SetFormField(ticket.FormFieldDescription, in.Text) {
		return
	}
	if err := d.ticketRepo.Update(ctx, t); err != nil {
		d.logger.Warnw("failed to store ticket description", "channel_id", channelID, "error", err)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, in *Inbound) error {
	command, args := splitCommand(in.Text)

	switch command {
	case "/start", "/ticket":
		return d.replyPost(ctx, in, TicketMenuPost())
	case "/games":
		return d.replyPost(ctx, in, usecases.GameOfferPost())
	case "/claim":
		t, err := d.ticketByTopic(ctx, in)
		if err != nil {
			return d.reply(ctx, in, errors.UserMessage(err))
		}
		return d.onClaim(ctx, in, t.Number())
	case "/close":
		t, err := d.ticketByTopic(ctx, in)
		if err != nil {
			return d.reply(ctx, in, errors.UserMessage(err))
		}
		return d.onClose(ctx, in, t.Number(), args)
	case "/lock":
		t, err := d.ticketByTopic(ctx, in)
		if err != nil {
			return d.reply(ctx, in, errors.UserMessage(err))
		}
		return d.onLock(ctx, in, t.Number(), true)
	case "/unlock":
		t, err := d.ticketByTopic(ctx, in)
		if err != nil {
			return d.reply(ctx, in, errors.UserMessage(err))
		}
		return d.onLock(ctx, in, t.Number(), false)
	case "/help":
		return d.reply(ctx, in, helpText)
	default:
		return d.reply(ctx, in, helpText)
	}
}

func (d *Dispatcher) onTicketTypeSelected(ctx context.Context, in *Inbound) error {
	result, err := d.createTicket.Execute(ctx, usecases.CreateTicketCommand{
		UserID: in.UserID,
		Type:   in.Value,
	})
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}
	return d.answer(ctx, in, fmt.Sprintf("Ticket %s created. Describe your problem in the ticket topic.", result.Number), false)
}

func (d *Dispatcher) onClaim(ctx context.Context, in *Inbound, number string) error {
	result, err := d.claimTicket.Execute(ctx, usecases.ClaimTicketCommand{
		Number:  number,
		StaffID: in.UserID,
	})
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}
	return d.answer(ctx, in, fmt.Sprintf("Ticket %s is yours.", result.Number), false)
}

// onRequestClose answers a close button with instructions: the Bot API has
// no form widget, so the reason arrives as a /close command.
func (d *Dispatcher) onRequestClose(ctx context.Context, in *Inbound, number string) error {
	result, err := d.requestClose.Execute(ctx, usecases.RequestCloseCommand{
		Number:  number,
		StaffID: in.UserID,
	})
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}
	return d.answer(ctx, in,
		fmt.Sprintf("Reply /close <reason> in the topic to close %s.", result.Number), false)
}

func (d *Dispatcher) onClose(ctx context.Context, in *Inbound, number, reason string) error {
	result, err := d.closeTicket.Execute(ctx, usecases.CloseTicketCommand{
		Number:  number,
		StaffID: in.UserID,
		Reason:  reason,
	})
	if err != nil {
		return d.reply(ctx, in, errors.UserMessage(err))
	}
	return d.reply(ctx, in, fmt.Sprintf("Ticket %s closed.", result.Number))
}

func (d *Dispatcher) onRate(ctx context.Context, in *Inbound, raw string) error {
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return d.answer(ctx, in, "Invalid rating.", true)
	}

	result, execErr := d.recordRating.Execute(ctx, usecases.RecordRatingCommand{
		UserID: in.UserID,
		Rating: rating,
	})
	if execErr != nil {
		return d.answer(ctx, in, errors.UserMessage(execErr), true)
	}
	return d.answer(ctx, in,
		fmt.Sprintf("Thanks for rating %s with %d stars!", result.TicketNumber, result.Rating), false)
}

func (d *Dispatcher) onLock(ctx context.Context, in *Inbound, number string, lock bool) error {
	var err error
	if lock {
		_, err = d.lockTicket.Execute(ctx, usecases.LockTicketCommand{Number: number, StaffID: in.UserID})
	} else {
		_, err = d.unlockTicket.Execute(ctx, usecases.UnlockTicketCommand{Number: number, StaffID: in.UserID})
	}
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}

	verb := "locked"
	if !lock {
		verb = "unlocked"
	}
	return d.answer(ctx, in, fmt.Sprintf("Ticket %s %s.", number, verb), false)
}

func (d *Dispatcher) onGameStart(ctx context.Context, in *Inbound, gameType string) error {
	result, err := d.games.Start(ctx, in.UserID, d.originKey(in), gameType)
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}
	if err := d.replyPost(ctx, in, result.Prompt); err != nil {
		return err
	}
	return d.answer(ctx, in, "", false)
}

func (d *Dispatcher) onGameButton(ctx context.Context, in *Inbound, gameType domaingame.GameType, payload string) error {
	result, err := d.games.HandleButton(ctx, in.UserID, gameType, payload)
	if err != nil {
		return d.answer(ctx, in, errors.UserMessage(err), true)
	}
	if err := d.replyPost(ctx, in, result.Response); err != nil {
		return err
	}
	return d.answer(ctx, in, "", false)
}

// ticketByTopic resolves the ticket owning the topic a command was sent in.
func (d *Dispatcher) ticketByTopic(ctx context.Context, in *Inbound) (*ticket.Ticket, error) {
	channelID := d.channelID(in)
	if channelID == "" {
		return nil, errors.NewInvalidInputError("this command only works inside a ticket topic")
	}
	t, err := d.ticketRepo.FindByChannelID(ctx, channelID)
	if err != nil {
		return nil, errors.NewNotFoundError("this topic has no ticket")
	}
	return t, nil
}

// channelID maps the update's location to a ticket channel ID: topics in the
// staff supergroup are ticket channels, everything else is not.
func (d *Dispatcher) channelID(in *Inbound) string {
	if in.ChatID == d.config.StaffChatID && in.ThreadID != 0 {
		return strconv.FormatInt(in.ThreadID, 10)
	}
	return ""
}

// originKey identifies the place a game session lives in. Ticket topics use
// the channel ID; every other chat gets a chat-scoped key so a session started
// in a DM never consumes messages from an unrelated group.
func (d *Dispatcher) originKey(in *Inbound) string {
	if channelID := d.channelID(in); channelID != "" {
		return channelID
	}
	if in.ThreadID != 0 {
		return fmt.Sprintf("chat:%d:%d", in.ChatID, in.ThreadID)
	}
	return fmt.Sprintf("chat:%d", in.ChatID)
}

func (d *Dispatcher) reply(ctx context.Context, in *Inbound, text string) error {
	return d.responder.SendMessage(ctx, in.ChatID, in.ThreadID, telegram.EscapeHTML(text), nil)
}

func (d *Dispatcher) replyPost(ctx context.Context, in *Inbound, post gateway.Post) error {
	text, keyboard := telegram.RenderPost(post)
	return d.responder.SendMessage(ctx, in.ChatID, in.ThreadID, text, keyboard)
}

// answer resolves a callback query. Falls back to a chat reply for
// command-driven flows that have no callback ID.
func (d *Dispatcher) answer(ctx context.Context, in *Inbound, text string, alert bool) error {
	if in.CallbackID == "" {
		if text == "" {
			return nil
		}
		return d.reply(ctx, in, text)
	}
	return d.responder.AnswerCallbackQuery(ctx, in.CallbackID, text, alert)
}

// TicketMenuPost is the ticket-type selection prompt.
func TicketMenuPost() gateway.Post {
	options := make([]gateway.MenuOption, 0, 5)
	for _, t := range vo.AllTicketTypes() {
		options = append(options, gateway.MenuOption{
			Label: t.Label(),
			Value: string(t),
		})
	}
	return gateway.Post{
		Title:       "Open a ticket",
		Description: "Pick the category that fits your request.",
		Menu: &gateway.Menu{
			Action:      "ticket_type",
			Placeholder: "Ticket type",
			Options:     options,
		},
	}
}

const helpText = "Commands: /ticket opens the ticket menu, /games lists the mini-games. " +
	"Staff can use /claim, /close <reason>, /lock and /unlock inside a ticket topic."

func splitCommand(text string) (command, args string) {
	command = text
	if i := strings.IndexByte(text, ' '); i >= 0 {
		command = text[:i]
		args = strings.TrimSpace(text[i+1:])
	}
	// Commands in groups arrive as /close@botname.
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}
	return command, args
}
