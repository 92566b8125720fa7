package ticket

import (
	"fmt"
	"time"

	"helpbot/internal/domain/shared/events"
	vo "helpbot/internal/domain/ticket/valueobjects"
)

// Ticket is the support-request aggregate. A ticket is tied 1:1 to a dedicated
// chat channel and owned by a single user; status and lifecycle timestamps are
// mutated only through the methods below.
type Ticket struct {
	id            uint
	number        string
	channelID     string
	userID        string
	ticketType    vo.TicketType
	priority      vo.Priority
	status        vo.Status
	formData      map[string]string
	claimedBy     string
	claimedAt     *time.Time
	closedBy      string
	closedAt      *time.Time
	closeReason   string
	transcriptRef string
	createdAt     time.Time
	updatedAt     time.Time

	pendingEvents []events.DomainEvent
}

func NewTicket(
	number string,
	userID string,
	ticketType vo.TicketType,
	priority vo.Priority,
	formData map[string]string,
) (*Ticket, error) {
	if len(number) == 0 {
		return nil, fmt.Errorf("ticket number is required")
	}
	if len(userID) == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !ticketType.IsValid() {
		return nil, fmt.Errorf("invalid ticket type")
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority")
	}
	if formData == nil {
		formData = make(map[string]string)
	}

	now := time.Now()

	t := &Ticket{
		number:     number,
		userID:     userID,
		ticketType: ticketType,
		priority:   priority,
		status:     vo.StatusOpen,
		formData:   formData,
		createdAt:  now,
		updatedAt:  now,
	}

	t.record(NewTicketCreatedEvent(number, userID, ticketType.String(), priority.String(), now))

	return t, nil
}

func ReconstructTicket(
	id uint,
	number string,
	channelID string,
	userID string,
	ticketType vo.TicketType,
	priority vo.Priority,
	status vo.Status,
	formData map[string]string,
	claimedBy string,
	claimedAt *time.Time,
	closedBy string,
	closedAt *time.Time,
	closeReason string,
	transcriptRef string,
	createdAt, updatedAt time.Time,
) (*Ticket, error) {
	if id == 0 {
		return nil, fmt.Errorf("ticket ID cannot be zero")
	}
	if len(number) == 0 {
		return nil, fmt.Errorf("ticket number is required")
	}
	if !ticketType.IsValid() {
		return nil, fmt.Errorf("invalid ticket type")
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status")
	}
	if formData == nil {
		formData = make(map[string]string)
	}

	return &Ticket{
		id:            id,
		number:        number,
		channelID:     channelID,
		userID:        userID,
		ticketType:    ticketType,
		priority:      priority,
		status:        status,
		formData:      formData,
		claimedBy:     claimedBy,
		claimedAt:     claimedAt,
		closedBy:      closedBy,
		closedAt:      closedAt,
		closeReason:   closeReason,
		transcriptRef: transcriptRef,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (t *Ticket) ID() uint {
	return t.id
}

func (t *Ticket) Number() string {
	return t.number
}

func (t *Ticket) ChannelID() string {
	return t.channelID
}

func (t *Ticket) UserID() string {
	return t.userID
}

func (t *Ticket) Type() vo.TicketType {
	return t.ticketType
}

func (t *Ticket) Priority() vo.Priority {
	return t.priority
}

func (t *Ticket) Status() vo.Status {
	return t.status
}

func (t *Ticket) FormData() map[string]string {
	dataCopy := make(map[string]string, len(t.formData))
	for k, v := range t.formData {
		dataCopy[k] = v
	}
	return dataCopy
}

// FormFieldDescription holds the user's problem description, collected as a
// follow-up message after the ticket channel is created.
const FormFieldDescription = "description"

// SetFormField records a creation-form answer collected after the ticket was
// created. Returns false when the field already has a value; follow-up
// answers never overwrite.
func (t *Ticket) SetFormField(key, value string) bool {
	if _, exists := t.formData[key]; exists {
		return false
	}
	t.formData[key] = value
	t.updatedAt = time.Now()
	return true
}

func (t *Ticket) ClaimedBy() string {
	return t.claimedBy
}

func (t *Ticket) ClaimedAt() *time.Time {
	return t.claimedAt
}

func (t *Ticket) ClosedBy() string {
	return t.closedBy
}

func (t *Ticket) ClosedAt() *time.Time {
	return t.closedAt
}

func (t *Ticket) CloseReason() string {
	return t.closeReason
}

func (t *Ticket) TranscriptRef() string {
	return t.transcriptRef
}

func (t *Ticket) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Ticket) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket ID cannot be zero")
	}
	t.id = id
	return nil
}

// AttachChannel binds the ticket to its dedicated chat channel. A ticket keeps
// the same channel for its whole life.
func (t *Ticket) AttachChannel(channelID string) error {
	if len(t.channelID) > 0 {
		return fmt.Errorf("ticket channel is already set")
	}
	if len(channelID) == 0 {
		return fmt.Errorf("channel ID cannot be empty")
	}
	t.channelID = channelID
	return nil
}

// Claim transitions the ticket from open to claimed. Claiming a ticket that is
// not open fails without mutating anything.
func (t *Ticket) Claim(staffID string) error {
	if len(staffID) == 0 {
		return fmt.Errorf("staff ID cannot be empty")
	}

	if !t.status.CanTransitionTo(vo.StatusClaimed) {
		return fmt.Errorf("cannot claim ticket with status %s", t.status)
	}

	now := time.Now()
	t.status = vo.StatusClaimed
	t.claimedBy = staffID
	t.claimedAt = &now
	t.updatedAt = now

	t.record(NewTicketClaimedEvent(t.number, staffID, now))

	return nil
}

// Close transitions the ticket to closed from either open or claimed.
// Closing an already-closed ticket fails.
func (t *Ticket) Close(staffID, reason string) error {
	if len(staffID) == 0 {
		return fmt.Errorf("staff ID cannot be empty")
	}
	if len(reason) == 0 {
		return fmt.Errorf("close reason is required")
	}

	if !t.status.CanTransitionTo(vo.StatusClosed) {
		return fmt.Errorf("cannot close ticket with status %s", t.status)
	}

	now := time.Now()
	t.status = vo.StatusClosed
	t.closedBy = staffID
	t.closedAt = &now
	t.closeReason = reason
	t.updatedAt = now

	t.record(NewTicketClosedEvent(t.number, t.userID, staffID, reason, now))

	return nil
}

// SetTranscriptRef records where the channel transcript was uploaded.
// Transcript capture is best effort, so this may never be called.
func (t *Ticket) SetTranscriptRef(ref string) {
	t.transcriptRef = ref
	t.updatedAt = time.Now()
}

func (t *Ticket) record(event events.DomainEvent) {
	t.pendingEvents = append(t.pendingEvents, event)
}

// GetEvents returns the domain events recorded since construction or the last
// ClearEvents call.
func (t *Ticket) GetEvents() []events.DomainEvent {
	eventsCopy := make([]events.DomainEvent, len(t.pendingEvents))
	copy(eventsCopy, t.pendingEvents)
	return eventsCopy
}

// ClearEvents drops recorded events after they have been published.
func (t *Ticket) ClearEvents() {
	t.pendingEvents = nil
}

func (t *Ticket) Validate() error {
	if len(t.number) == 0 {
		return fmt.Errorf("ticket number is required")
	}
	if len(t.userID) == 0 {
		return fmt.Errorf("user ID is required")
	}
	if !t.ticketType.IsValid() {
		return fmt.Errorf("invalid ticket type")
	}
	if !t.priority.IsValid() {
		return fmt.Errorf("invalid priority")
	}
	if !t.status.IsValid() {
		return fmt.Errorf("invalid status")
	}
	return nil
}
