// Package analytics defines date-bucketed additive counters. Each (date,
// metric) pair is a single row whose value is upsert-incremented, bounding
// table growth to one row per metric per day.
package analytics

import "time"

// Metric names emitted by the ticket lifecycle and game engines.
const (
	MetricTicketCreated   = "ticket_created"
	MetricTicketClaimed   = "ticket_claimed"
	MetricTicketClosed    = "ticket_closed"
	MetricRatingSubmitted = "rating_submitted"
	MetricGameStarted     = "game_started"
	MetricGameEnded       = "game_ended"
)

// Event is one additive increment against a (date, metric) bucket.
type Event struct {
	Date     time.Time
	Metric   string
	Value    int64
	Metadata map[string]any
}

// NewEvent builds an increment of value 1 for metric, bucketed to the day of
// occurredAt.
func NewEvent(metric string, occurredAt time.Time, metadata map[string]any) Event {
	return Event{
		Date:     occurredAt.Truncate(24 * time.Hour),
		Metric:   metric,
		Value:    1,
		Metadata: metadata,
	}
}

// DailyCount is one row of a report: the accumulated value of a metric on a day.
type DailyCount struct {
	Date   time.Time
	Metric string
	Value  int64
}

// Report aggregates counters over a date range.
type Report struct {
	From   time.Time
	To     time.Time
	Totals map[string]int64
	Daily  []DailyCount
}
