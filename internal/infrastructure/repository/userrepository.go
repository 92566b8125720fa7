package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"helpbot/internal/domain/user"
	"helpbot/internal/infrastructure/persistence/mappers"
	"helpbot/internal/infrastructure/persistence/models"
	"helpbot/internal/shared/db"
	appErrors "helpbot/internal/shared/errors"
)

type UserRepository struct {
	db     *gorm.DB
	mapper mappers.UserMapper
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{
		db:     database,
		mapper: mappers.NewUserMapper(),
	}
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	model := r.mapper.ToModel(u)
	tx := db.FromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	if err := u.SetID(model.ID); err != nil {
		return err
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	model := r.mapper.ToModel(u)
	tx := db.FromContext(ctx, r.db)

	result := tx.
		Model(&models.UserModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"tickets_created": model.TicketsCreated,
			"tickets_closed":  model.TicketsClosed,
			"games_played":    model.GamesPlayed,
			"rating_average":  model.RatingAverage,
			"rating_count":    model.RatingCount,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}

	return nil
}

func (r *UserRepository) FindByPlatformID(ctx context.Context, platformID string) (*user.User, error) {
	var model models.UserModel
	tx := db.FromContext(ctx, r.db)

	if err := tx.Where("platform_id = ?", platformID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

// GetOrCreate fetches the aggregate for platformID, creating an empty one on
// first contact. A concurrent first contact loses the insert race on the
// unique index and retries the lookup.
func (r *UserRepository) GetOrCreate(ctx context.Context, platformID string) (*user.User, error) {
	existing, err := r.FindByPlatformID(ctx, platformID)
	if err == nil {
		return existing, nil
	}
	if !appErrors.IsNotFoundError(err) {
		return nil, err
	}

	fresh, err := user.NewUser(platformID)
	if err != nil {
		return nil, err
	}

	if err := r.Save(ctx, fresh); err != nil {
		if retried, retryErr := r.FindByPlatformID(ctx, platformID); retryErr == nil {
			return retried, nil
		}
		return nil, err
	}

	return fresh, nil
}
