package ticket

import (
	"time"

	"helpbot/internal/domain/shared/events"
)

const (
	EventTypeTicketCreated   = "ticket.created"
	EventTypeTicketClaimed   = "ticket.claimed"
	EventTypeTicketClosed    = "ticket.closed"
	EventTypeRatingSubmitted = "ticket.rating_submitted"
)

type TicketCreatedEvent struct {
	events.BaseEvent
	UserID     string
	TicketType string
	Priority   string
}

func NewTicketCreatedEvent(number, userID, ticketType, priority string, occurredAt time.Time) TicketCreatedEvent {
	return TicketCreatedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: number,
			EventType:   EventTypeTicketCreated,
			OccurredAt:  occurredAt,
		},
		UserID:     userID,
		TicketType: ticketType,
		Priority:   priority,
	}
}

type TicketClaimedEvent struct {
	events.BaseEvent
	StaffID string
}

func NewTicketClaimedEvent(number, staffID string, occurredAt time.Time) TicketClaimedEvent {
	return TicketClaimedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: number,
			EventType:   EventTypeTicketClaimed,
			OccurredAt:  occurredAt,
		},
		StaffID: staffID,
	}
}

type TicketClosedEvent struct {
	events.BaseEvent
	UserID  string
	StaffID string
	Reason  string
}

func NewTicketClosedEvent(number, userID, staffID, reason string, occurredAt time.Time) TicketClosedEvent {
	return TicketClosedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: number,
			EventType:   EventTypeTicketClosed,
			OccurredAt:  occurredAt,
		},
		UserID:  userID,
		StaffID: staffID,
		Reason:  reason,
	}
}

type RatingSubmittedEvent struct {
	events.BaseEvent
	UserID string
	Rating int
}

func NewRatingSubmittedEvent(number, userID string, rating int, occurredAt time.Time) RatingSubmittedEvent {
	return RatingSubmittedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: number,
			EventType:   EventTypeRatingSubmitted,
			OccurredAt:  occurredAt,
		},
		UserID: userID,
		Rating: rating,
	}
}
