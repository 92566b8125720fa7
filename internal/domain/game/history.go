package game

import "context"

// HistoryRepository records finished sessions for reporting. Live sessions
// never touch it; a row is written once, at termination.
type HistoryRepository interface {
	SaveFinished(ctx context.Context, s *Session) error
}
