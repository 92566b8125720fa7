package mappers

import (
	"helpbot/internal/domain/user"
	"helpbot/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between User aggregates and persistence models.
type UserMapper interface {
	ToModel(u *user.User) *models.UserModel
	ToDomain(model *models.UserModel) (*user.User, error)
}

type userMapper struct{}

// NewUserMapper creates a new UserMapper.
func NewUserMapper() UserMapper {
	return &userMapper{}
}

func (m *userMapper) ToModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:             u.ID(),
		PlatformID:     u.PlatformID(),
		TicketsCreated: u.TicketsCreated(),
		TicketsClosed:  u.TicketsClosed(),
		GamesPlayed:    u.GamesPlayed(),
		RatingAverage:  u.RatingAverage(),
		RatingCount:    u.RatingCount(),
		CreatedAt:      u.CreatedAt().UnixMilli(),
		UpdatedAt:      u.UpdatedAt().UnixMilli(),
	}
}

func (m *userMapper) ToDomain(model *models.UserModel) (*user.User, error) {
	return user.ReconstructUser(
		model.ID,
		model.PlatformID,
		model.TicketsCreated,
		model.TicketsClosed,
		model.GamesPlayed,
		model.RatingAverage,
		model.RatingCount,
		millisToTime(model.CreatedAt),
		millisToTime(model.UpdatedAt),
	)
}
