package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"helpbot/internal/domain/ticket"
	vo "helpbot/internal/domain/ticket/valueobjects"
	"helpbot/internal/infrastructure/persistence/mappers"
	"helpbot/internal/infrastructure/persistence/models"
	"helpbot/internal/shared/db"
	appErrors "helpbot/internal/shared/errors"
)

type TicketRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewTicketRepository(database *gorm.DB) *TicketRepository {
	return &TicketRepository{
		db:     database,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *TicketRepository) Save(ctx context.Context, t *ticket.Ticket) error {
	model := r.mapper.ToModel(t)
	tx := db.FromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}

	if err := t.SetID(model.ID); err != nil {
		return err
	}

	return nil
}

func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	model := r.mapper.ToModel(t)
	tx := db.FromContext(ctx, r.db)

	result := tx.
		Model(&models.TicketModel{}).
		Where("id = ?", model.ID).
		Updates(model)

	if result.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", result.Error)
	}

	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id uint) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.FromContext(ctx, r.db)

	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("ticket not found")
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.FromContext(ctx, r.db)

	if err := tx.Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("ticket not found")
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindByChannelID(ctx context.Context, channelID string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.FromContext(ctx, r.db)

	if err := tx.Where("channel_id = ?", channelID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("ticket not found")
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindActiveByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.FromContext(ctx, r.db)

	err := tx.
		Where("user_id = ? AND status IN ?", userID, []string{
			vo.StatusOpen.String(),
			vo.StatusClaimed.String(),
		}).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("no active ticket for user")
		}
		return nil, fmt.Errorf("failed to find active ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindLatestClosedByUserID(ctx context.Context, userID string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.FromContext(ctx, r.db)

	err := tx.
		Where("user_id = ? AND status = ?", userID, vo.StatusClosed.String()).
		Order("closed_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("no closed ticket for user")
		}
		return nil, fmt.Errorf("failed to find latest closed ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

// MarkClaimed performs the conditional open -> claimed transition. The WHERE
// clause on the current status makes the affected-row count the source of
// truth: zero rows means the ticket was not open and nothing was mutated.
func (r *TicketRepository) MarkClaimed(ctx context.Context, number, staffID string) (bool, error) {
	tx := db.FromContext(ctx, r.db)
	now := time.Now().UnixMilli()

	result := tx.
		Model(&models.TicketModel{}).
		Where("number = ? AND status = ?", number, vo.StatusOpen.String()).
		Updates(map[string]interface{}{
			"status":     vo.StatusClaimed.String(),
			"claimed_by": staffID,
			"claimed_at": now,
			"updated_at": now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim ticket: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkClosed performs the conditional open|claimed -> closed transition.
func (r *TicketRepository) MarkClosed(ctx context.Context, number, staffID, reason string) (bool, error) {
	tx := db.FromContext(ctx, r.db)
	now := time.Now().UnixMilli()

	result := tx.
		Model(&models.TicketModel{}).
		Where("number = ? AND status IN ?", number, []string{
			vo.StatusOpen.String(),
			vo.StatusClaimed.String(),
		}).
		Updates(map[string]interface{}{
			"status":       vo.StatusClosed.String(),
			"closed_by":    staffID,
			"closed_at":    now,
			"close_reason": reason,
			"updated_at":   now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to close ticket: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *TicketRepository) SetTranscriptRef(ctx context.Context, number, ref string) error {
	tx := db.FromContext(ctx, r.db)

	result := tx.
		Model(&models.TicketModel{}).
		Where("number = ?", number).
		Update("transcript_ref", ref)

	if result.Error != nil {
		return fmt.Errorf("failed to set transcript ref: %w", result.Error)
	}
	return nil
}

func (r *TicketRepository) CountClaimedByStaff(ctx context.Context) (map[string]int, error) {
	tx := db.FromContext(ctx, r.db)

	var rows []struct {
		ClaimedBy string
		Count     int
	}
	err := tx.
		Model(&models.TicketModel{}).
		Select("claimed_by, COUNT(*) as count").
		Where("status = ?", vo.StatusClaimed.String()).
		Group("claimed_by").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count claimed tickets: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ClaimedBy] = row.Count
	}
	return counts, nil
}

// List counts and reads inside one transaction so the total matches the page
// even while tickets are being created.
func (r *TicketRepository) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, int64, error) {
	var (
		total   int64
		models_ []models.TicketModel
	)
	err := db.WithTx(ctx, r.db, func(ctx context.Context) error {
		tx := db.FromContext(ctx, r.db).Model(&models.TicketModel{})

		if filter.Status != nil {
			tx = tx.Where("status = ?", filter.Status.String())
		}
		if filter.Type != nil {
			tx = tx.Where("type = ?", filter.Type.String())
		}
		if filter.Priority != nil {
			tx = tx.Where("priority = ?", filter.Priority.String())
		}
		if filter.UserID != nil {
			tx = tx.Where("user_id = ?", *filter.UserID)
		}

		if err := tx.Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count tickets: %w", err)
		}

		if filter.PageSize > 0 {
			page := filter.Page
			if page < 1 {
				page = 1
			}
			tx = tx.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
		}

		if err := tx.Order("created_at DESC").Find(&models_).Error; err != nil {
			return fmt.Errorf("failed to list tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	tickets := make([]*ticket.Ticket, 0, len(models_))
	for i := range models_ {
		t, err := r.mapper.ToDomain(&models_[i])
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}

	return tickets, total, nil
}
