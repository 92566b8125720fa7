package models

// GameModel is the historical record of a finished game session. Live
// sessions stay in the registry; a row is written only at termination.
type GameModel struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"uniqueIndex;size:50;not null"`
	UserID     string `gorm:"size:64;not null;index"`
	Type       string `gorm:"size:32;not null;index"`
	Result     string `gorm:"size:16;not null"`
	DurationMs int64  `gorm:"not null"`
	StartedAt  int64  `gorm:"not null"`
	EndedAt    int64  `gorm:"not null"`
}

func (GameModel) TableName() string {
	return "games"
}
