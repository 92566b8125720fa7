package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"helpbot/internal/application/gateway"
	sharedConfig "helpbot/internal/shared/config"
	"helpbot/internal/shared/logger"
)

// ChannelGateway implements the chat-platform port on top of the Bot API.
// A ticket channel is a forum topic in the staff supergroup; its platform ID
// is the topic's thread ID rendered as a string.
type ChannelGateway struct {
	client  *Client
	config  sharedConfig.TelegramConfig
	history *historyStore
	logger  logger.Interface

	mu           sync.Mutex
	userChannels map[string]string
}

func NewChannelGateway(client *Client, config sharedConfig.TelegramConfig, transcriptMaxEntries int, log logger.Interface) *ChannelGateway {
	return &ChannelGateway{
		client:       client,
		config:       config,
		history:      newHistoryStore(transcriptMaxEntries),
		logger:       log.Named("telegram-gateway"),
		userChannels: make(map[string]string),
	}
}

func (g *ChannelGateway) CreateTicketChannel(ctx context.Context, ticketNumber, userID string) (string, error) {
	threadID, err := g.client.CreateForumTopic(ctx, g.config.StaffChatID, fmt.Sprintf("%s · %s", ticketNumber, userID))
	if err != nil {
		return "", fmt.Errorf("failed to create ticket topic: %w", err)
	}

	channelID := strconv.FormatInt(threadID, 10)

	g.mu.Lock()
	g.userChannels[userID] = channelID
	g.mu.Unlock()

	return channelID, nil
}

func (g *ChannelGateway) DeleteChannel(ctx context.Context, channelID string) error {
	threadID, err := parseChannelID(channelID)
	if err != nil {
		return err
	}

	if err := g.client.DeleteForumTopic(ctx, g.config.StaffChatID, threadID); err != nil {
		return fmt.Errorf("failed to delete ticket topic: %w", err)
	}

	g.history.Drop(channelID)

	g.mu.Lock()
	for userID, ch := range g.userChannels {
		if ch == channelID {
			delete(g.userChannels, userID)
		}
	}
	g.mu.Unlock()

	return nil
}

// SetChannelVisibility maps staff-only to a closed topic: Telegram lets only
// chat admins post in closed topics.
func (g *ChannelGateway) SetChannelVisibility(ctx context.Context, channelID string, staffOnly bool) error {
	threadID, err := parseChannelID(channelID)
	if err != nil {
		return err
	}

	if staffOnly {
		err = g.client.CloseForumTopic(ctx, g.config.StaffChatID, threadID)
	} else {
		err = g.client.ReopenForumTopic(ctx, g.config.StaffChatID, threadID)
	}
	if err != nil {
		return fmt.Errorf("failed to toggle topic visibility: %w", err)
	}
	return nil
}

func (g *ChannelGateway) SendDirectMessage(ctx context.Context, userID string, post gateway.Post) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", userID, err)
	}

	text, keyboard := renderPost(post)
	if err := g.client.SendMessage(ctx, chatID, 0, text, keyboard); err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

func (g *ChannelGateway) PostMessage(ctx context.Context, channelID string, post gateway.Post) error {
	text, keyboard := renderPost(post)

	// Chat-scoped origins address game sessions outside ticket topics; they
	// never carry a transcript.
	if chatID, threadID, ok := parseChatOrigin(channelID); ok {
		if err := g.client.SendMessage(ctx, chatID, threadID, text, keyboard); err != nil {
			return fmt.Errorf("failed to post message: %w", err)
		}
		return nil
	}

	threadID, err := parseChannelID(channelID)
	if err != nil {
		return err
	}

	if err := g.client.SendMessage(ctx, g.config.StaffChatID, threadID, text, keyboard); err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}

	g.history.Record(channelID, gateway.HistoryEntry{
		AuthorID:   "bot",
		AuthorName: g.client.GetBotUsername(),
		Text:       post.Title + " " + post.Description,
		SentAt:     time.Now(),
	})

	return nil
}

// PostLog writes a Post into one of the configured log chats. A zero chat ID
// means the log is not configured.
func (g *ChannelGateway) PostLog(ctx context.Context, channel gateway.LogChannel, post gateway.Post) error {
	var chatID int64
	switch channel {
	case gateway.LogOpen:
		chatID = g.config.OpenLogChatID
	case gateway.LogClose:
		chatID = g.config.CloseLogChatID
	case gateway.LogStar:
		chatID = g.config.StarLogChatID
	}
	if chatID == 0 {
		return fmt.Errorf("log chat %q is not configured", channel)
	}

	text, keyboard := renderPost(post)
	return g.client.SendMessage(ctx, chatID, 0, text, keyboard)
}

// RecordInbound feeds a user message into the transcript buffer. Called by
// the inbound dispatcher for messages inside ticket topics.
func (g *ChannelGateway) RecordInbound(channelID string, entry gateway.HistoryEntry) {
	g.history.Record(channelID, entry)
}

func (g *ChannelGateway) FetchChannelHistory(ctx context.Context, channelID string, limit int) ([]gateway.HistoryEntry, error) {
	return g.history.Entries(channelID, limit), nil
}

func (g *ChannelGateway) UploadTranscript(ctx context.Context, ticketNumber string, content []byte) (string, error) {
	if g.config.CloseLogChatID == 0 {
		return "", fmt.Errorf("close log chat is not configured")
	}

	filename := fmt.Sprintf("transcript-%s.txt", ticketNumber)
	messageID, err := g.client.SendDocument(ctx, g.config.CloseLogChatID, filename, content, "Transcript for "+ticketNumber)
	if err != nil {
		return "", fmt.Errorf("failed to upload transcript: %w", err)
	}

	return fmt.Sprintf("%d:%d", g.config.CloseLogChatID, messageID), nil
}

func (g *ChannelGateway) ListStaffMembers(ctx context.Context) ([]gateway.StaffMember, error) {
	members, err := g.client.GetChatAdministrators(ctx, g.config.StaffChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}

	staff := make([]gateway.StaffMember, 0, len(members))
	for _, m := range members {
		if m.User == nil || m.User.IsBot {
			continue
		}
		name := m.User.Username
		if name == "" {
			name = strings.TrimSpace(m.User.FirstName + " " + m.User.LastName)
		}
		staff = append(staff, gateway.StaffMember{
			ID:      strconv.FormatInt(m.User.ID, 10),
			Name:    name,
			IsAdmin: m.Status == "creator",
		})
	}

	return staff, nil
}

// SeedUserChannels restores the user-to-channel index from tickets that were
// active when the process last stopped. Without it the duplicate-channel
// check starts blind after a restart.
func (g *ChannelGateway) SeedUserChannels(entries map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for userID, channelID := range entries {
		g.userChannels[userID] = channelID
	}
}

func (g *ChannelGateway) UserHasActiveTicketChannel(ctx context.Context, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.userChannels[userID]
	return ok, nil
}

// parseChatOrigin decodes the chat-scoped origin keys the inbound dispatcher
// builds for game sessions outside ticket topics: "chat:<chatID>" or
// "chat:<chatID>:<threadID>".
func parseChatOrigin(key string) (chatID, threadID int64, ok bool) {
	rest, found := strings.CutPrefix(key, "chat:")
	if !found {
		return 0, 0, false
	}

	parts := strings.SplitN(rest, ":", 2)
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 2 {
		threadID, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	return chatID, threadID, true
}

func parseChannelID(channelID string) (int64, error) {
	threadID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel ID %q: %w", channelID, err)
	}
	return threadID, nil
}

// RenderPost exposes the Post flattening for the inbound dispatcher, which
// replies through the raw client.
func RenderPost(post gateway.Post) (string, *InlineKeyboardMarkup) {
	return renderPost(post)
}

// renderPost flattens the platform-neutral Post into Telegram HTML plus an
// inline keyboard. Menus become one callback button per option since the Bot
// API has no native select widget.
func renderPost(post gateway.Post) (string, *InlineKeyboardMarkup) {
	var b strings.Builder

	if post.Title != "" {
		b.WriteString("<b>")
		b.WriteString(EscapeHTML(post.Title))
		b.WriteString("</b>\n")
	}
	if post.Description != "" {
		b.WriteString(EscapeHTML(post.Description))
		b.WriteString("\n")
	}
	for _, field := range post.Fields {
		b.WriteString("\n<b>")
		b.WriteString(EscapeHTML(field.Name))
		b.WriteString(":</b> ")
		b.WriteString(EscapeHTML(field.Value))
	}

	var rows [][]InlineKeyboardButton
	for _, buttonRow := range post.Buttons {
		row := make([]InlineKeyboardButton, 0, len(buttonRow))
		for _, button := range buttonRow {
			row = append(row, InlineKeyboardButton{
				Text:         button.Label,
				CallbackData: button.Action,
			})
		}
		rows = append(rows, row)
	}
	if post.Menu != nil {
		for _, option := range post.Menu.Options {
			rows = append(rows, []InlineKeyboardButton{{
				Text:         option.Label,
				CallbackData: post.Menu.Action + ":" + option.Value,
			}})
		}
	}

	var keyboard *InlineKeyboardMarkup
	if len(rows) > 0 {
		keyboard = &InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	return strings.TrimSpace(b.String()), keyboard
}
