package game

import (
	"time"

	"helpbot/internal/domain/shared/events"
)

const (
	EventTypeGameStarted = "game.started"
	EventTypeGameEnded   = "game.ended"
)

type GameStartedEvent struct {
	events.BaseEvent
	UserID   string
	GameType string
}

func NewGameStartedEvent(sessionID, userID string, gameType GameType, occurredAt time.Time) GameStartedEvent {
	return GameStartedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: sessionID,
			EventType:   EventTypeGameStarted,
			OccurredAt:  occurredAt,
		},
		UserID:   userID,
		GameType: gameType.String(),
	}
}

type GameEndedEvent struct {
	events.BaseEvent
	UserID   string
	GameType string
	Result   string
	Duration time.Duration
}

func NewGameEndedEvent(sessionID, userID string, gameType GameType, result Result, duration time.Duration, occurredAt time.Time) GameEndedEvent {
	return GameEndedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: sessionID,
			EventType:   EventTypeGameEnded,
			OccurredAt:  occurredAt,
		},
		UserID:   userID,
		GameType: gameType.String(),
		Result:   string(result),
		Duration: duration,
	}
}
