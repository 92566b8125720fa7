package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpbot/internal/domain/analytics"
	"helpbot/internal/infrastructure/persistence/models"
	"helpbot/internal/shared/db"
)

const analyticsDateLayout = "2006-01-02"

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(database *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: database}
}

// Record upsert-increments the (date, metric) bucket. The ON CONFLICT clause
// keeps concurrent increments additive without a read-modify-write cycle.
func (r *AnalyticsRepository) Record(ctx context.Context, event analytics.Event) error {
	tx := db.FromContext(ctx, r.db)

	metadata := ""
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal analytics metadata: %w", err)
		}
		metadata = string(raw)
	}

	model := models.AnalyticsModel{
		Date:     event.Date.Format(analyticsDateLayout),
		Metric:   event.Metric,
		Value:    event.Value,
		Metadata: metadata,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "metric"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("value + ?", event.Value),
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to record analytics event: %w", err)
	}

	return nil
}

func (r *AnalyticsRepository) GetReport(ctx context.Context, from, to time.Time) (*analytics.Report, error) {
	tx := db.FromContext(ctx, r.db)

	var rows []models.AnalyticsModel
	err := tx.
		Where("date >= ? AND date <= ?", from.Format(analyticsDateLayout), to.Format(analyticsDateLayout)).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics: %w", err)
	}

	report := &analytics.Report{
		From:   from,
		To:     to,
		Totals: make(map[string]int64),
		Daily:  make([]analytics.DailyCount, 0, len(rows)),
	}

	for _, row := range rows {
		date, err := time.Parse(analyticsDateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse analytics date %q: %w", row.Date, err)
		}
		report.Totals[row.Metric] += row.Value
		report.Daily = append(report.Daily, analytics.DailyCount{
			Date:   date,
			Metric: row.Metric,
			Value:  row.Value,
		})
	}

	return report, nil
}

func (r *AnalyticsRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tx := db.FromContext(ctx, r.db)

	result := tx.
		Where("date < ?", before.Format(analyticsDateLayout)).
		Delete(&models.AnalyticsModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune analytics: %w", result.Error)
	}

	return result.RowsAffected, nil
}
