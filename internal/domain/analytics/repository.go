package analytics

import (
	"context"
	"time"
)

// Repository stores additive counters. Record must upsert-increment rather
// than insert rows.
type Repository interface {
	Record(ctx context.Context, event Event) error
	GetReport(ctx context.Context, from, to time.Time) (*Report, error)

	// Prune removes rows older than before. Called by the daily maintenance job.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
