package models

// AnalyticsModel is one (date, metric) bucket. Record upsert-increments
// Value, so the table grows by at most one row per metric per day.
type AnalyticsModel struct {
	ID       uint   `gorm:"primaryKey"`
	Date     string `gorm:"size:10;not null;uniqueIndex:idx_analytics_date_metric"`
	Metric   string `gorm:"size:64;not null;uniqueIndex:idx_analytics_date_metric"`
	Value    int64  `gorm:"not null;default:0"`
	Metadata string `gorm:"type:json"`
}

func (AnalyticsModel) TableName() string {
	return "analytics"
}
