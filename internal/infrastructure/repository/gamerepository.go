package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"helpbot/internal/domain/game"
	"helpbot/internal/infrastructure/persistence/models"
	"helpbot/internal/shared/db"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(database *gorm.DB) *GameRepository {
	return &GameRepository{db: database}
}

// SaveFinished writes the historical row for a terminated session.
func (r *GameRepository) SaveFinished(ctx context.Context, s *game.Session) error {
	if !s.Terminated() {
		return fmt.Errorf("cannot record unfinished game session %s", s.ID())
	}

	duration := s.Duration()
	startedAt := s.StartedAt()

	model := models.GameModel{
		SessionID:  s.ID(),
		UserID:     s.UserID(),
		Type:       s.GameType().String(),
		Result:     string(s.Result()),
		DurationMs: duration.Milliseconds(),
		StartedAt:  startedAt.UnixMilli(),
		EndedAt:    startedAt.Add(duration).UnixMilli(),
	}

	tx := db.FromContext(ctx, r.db)
	if err := tx.Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save game record: %w", err)
	}

	return nil
}
