// Package analytics subscribes the counter sink to the domain-event stream.
// The ticket and game engines publish events without knowing the sink; the
// recorder translates each event type into a (date, metric) increment.
package analytics

import (
	"context"
	"fmt"
	"time"

	"helpbot/internal/domain/analytics"
	"helpbot/internal/domain/game"
	"helpbot/internal/domain/shared/events"
	"helpbot/internal/domain/ticket"
	"helpbot/internal/shared/logger"
)

const recordTimeout = 5 * time.Second

// Recorder maps domain events onto additive analytics counters.
type Recorder struct {
	repo   analytics.Repository
	logger logger.Interface
}

func NewRecorder(repo analytics.Repository, log logger.Interface) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: log.Named("analytics"),
	}
}

// Register subscribes the recorder to every metric-bearing event type.
func (r *Recorder) Register(dispatcher events.EventDispatcher) error {
	bindings := map[string]string{
		ticket.EventTypeTicketCreated:   analytics.MetricTicketCreated,
		ticket.EventTypeTicketClaimed:   analytics.MetricTicketClaimed,
		ticket.EventTypeTicketClosed:    analytics.MetricTicketClosed,
		ticket.EventTypeRatingSubmitted: analytics.MetricRatingSubmitted,
		game.EventTypeGameStarted:       analytics.MetricGameStarted,
		game.EventTypeGameEnded:         analytics.MetricGameEnded,
	}

	for eventType, metric := range bindings {
		metric := metric
		handler := events.NewSimpleEventHandler(eventType, func(event events.DomainEvent) error {
			return r.record(metric, event)
		})
		if err := dispatcher.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("failed to subscribe analytics recorder: %w", err)
		}
	}

	return nil
}

func (r *Recorder) record(metric string, event events.DomainEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := analytics.NewEvent(metric, event.GetOccurredAt(), metadataFor(event))
	if err := r.repo.Record(ctx, entry); err != nil {
		// Counters are a side-effect sink; a failed increment never blocks
		// the emitting operation.
		r.logger.Errorw("failed to record analytics event",
			"metric", metric,
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
		return err
	}

	return nil
}

func metadataFor(event events.DomainEvent) map[string]any {
	switch e := event.(type) {
	case ticket.TicketCreatedEvent:
		return map[string]any{"type": e.TicketType, "priority": e.Priority}
	case game.GameEndedEvent:
		return map[string]any{
			"type":        e.GameType,
			"result":      e.Result,
			"duration_ms": e.Duration.Milliseconds(),
		}
	case game.GameStartedEvent:
		return map[string]any{"type": e.GameType}
	default:
		return nil
	}
}
