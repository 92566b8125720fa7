// Package bot turns raw Telegram updates into ticket and game operations.
// It is the single inbound surface; the webhook handler and the polling
// service both feed it.
package bot

import (
	"strconv"
	"strings"

	"helpbot/internal/infrastructure/telegram"
)

// Kind discriminates the decoded inbound shapes.
type Kind int

const (
	KindButtonPress Kind = iota
	KindMessage
)

// Inbound is one decoded update. Button presses carry Action/Value from the
// callback data; messages carry Text.
type Inbound struct {
	Kind       Kind
	UserID     string
	UserName   string
	ChatID     int64
	ThreadID   int64
	CallbackID string

	// Action and Value come from callback data "action" or "action:value".
	Action string
	Value  string

	Text           string
	MessageID      int64
	AttachmentRefs []string
}

// Decode flattens a raw update. Returns false for updates the bot does not
// react to (edits, joins, messages without a sender).
func Decode(u *telegram.Update) (*Inbound, bool) {
	switch {
	case u.CallbackQuery != nil:
		return decodeCallback(u.CallbackQuery)
	case u.Message != nil:
		return decodeMessage(u.Message)
	default:
		return nil, false
	}
}

func decodeCallback(q *telegram.CallbackQuery) (*Inbound, bool) {
	if q.From == nil || q.Data == "" {
		return nil, false
	}

	in := &Inbound{
		Kind:       KindButtonPress,
		UserID:     strconv.FormatInt(q.From.ID, 10),
		UserName:   displayName(q.From),
		CallbackID: q.ID,
	}
	if q.Message != nil {
		in.MessageID = q.Message.MessageID
		in.ThreadID = q.Message.MessageThreadID
		if q.Message.Chat != nil {
			in.ChatID = q.Message.Chat.ID
		}
	}

	in.Action, in.Value = splitCallbackData(q.Data)
	return in, true
}

func decodeMessage(m *telegram.Message) (*Inbound, bool) {
	if m.From == nil || m.From.IsBot || m.Chat == nil {
		return nil, false
	}

	in := &Inbound{
		Kind:      KindMessage,
		UserID:    strconv.FormatInt(m.From.ID, 10),
		UserName:  displayName(m.From),
		ChatID:    m.Chat.ID,
		ThreadID:  m.MessageThreadID,
		Text:      strings.TrimSpace(m.Text),
		MessageID: m.MessageID,
	}

	if m.Document != nil {
		in.AttachmentRefs = append(in.AttachmentRefs, m.Document.FileID)
	}
	for _, p := range m.Photo {
		in.AttachmentRefs = append(in.AttachmentRefs, p.FileID)
	}

	if in.Text == "" && len(in.AttachmentRefs) == 0 {
		return nil, false
	}
	return in, true
}

// splitCallbackData parses "action" or "action:value". Values may themselves
// contain colons (transcript refs), so only the first separator counts.
func splitCallbackData(data string) (action, value string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

func displayName(u *telegram.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
