// Package gateway defines the chat-platform port the ticket and game engines
// depend on. Implementations live under internal/infrastructure; the engines
// never import a platform SDK directly.
package gateway

import (
	"context"
	"time"
)

// Button is one pressable element. Action is the callback payload the
// inbound dispatcher decodes.
type Button struct {
	Label  string
	Action string
}

// MenuOption is one entry of a selection menu.
type MenuOption struct {
	Label       string
	Value       string
	Description string
}

// Menu is a selection prompt. Action plus the chosen Value form the callback
// payload.
type Menu struct {
	Action      string
	Placeholder string
	Options     []MenuOption
}

// Field is one name/value pair of a structured message.
type Field struct {
	Name  string
	Value string
}

// Post is a platform-neutral structured message. Renderers map it to the
// platform's closest equivalent (embed, HTML card, plain text).
type Post struct {
	Title       string
	Description string
	Fields      []Field
	Color       int
	Buttons     [][]Button
	Menu        *Menu
}

// HistoryEntry is one line of a channel transcript, newest last.
type HistoryEntry struct {
	AuthorID       string
	AuthorName     string
	Text           string
	SentAt         time.Time
	AttachmentRefs []string
}

// StaffMember is a support-staff identity as the platform reports it.
type StaffMember struct {
	ID      string
	Name    string
	IsAdmin bool
}

// LogChannel names one of the configured log destinations.
type LogChannel string

const (
	LogOpen  LogChannel = "open"
	LogClose LogChannel = "close"
	LogStar  LogChannel = "star"
)

// Gateway is the outbound chat-platform surface. Operations used as side
// effects of a lifecycle transition are best effort from the caller's point
// of view: the caller decides whether a failure aborts the transition.
type Gateway interface {
	// CreateTicketChannel allocates the dedicated channel for a ticket and
	// returns its platform ID.
	CreateTicketChannel(ctx context.Context, ticketNumber, userID string) (string, error)

	DeleteChannel(ctx context.Context, channelID string) error

	// SetChannelVisibility restricts the channel to staff when staffOnly is
	// true and restores user access when false.
	SetChannelVisibility(ctx context.Context, channelID string, staffOnly bool) error

	SendDirectMessage(ctx context.Context, userID string, post Post) error

	PostMessage(ctx context.Context, channelID string, post Post) error

	// PostLog writes into a configured log destination. Fails when the
	// destination is not configured; callers treat log posts as best effort.
	PostLog(ctx context.Context, channel LogChannel, post Post) error

	// FetchChannelHistory returns up to limit transcript entries, newest last.
	FetchChannelHistory(ctx context.Context, channelID string, limit int) ([]HistoryEntry, error)

	// UploadTranscript stores the rendered transcript and returns a reference
	// usable in log messages.
	UploadTranscript(ctx context.Context, ticketNumber string, content []byte) (string, error)

	ListStaffMembers(ctx context.Context) ([]StaffMember, error)

	// UserHasActiveTicketChannel reports whether the platform still has a
	// live ticket channel for the user. Used as the metadata side of the
	// duplicate-ticket check alongside the store lookup.
	UserHasActiveTicketChannel(ctx context.Context, userID string) (bool, error)
}
