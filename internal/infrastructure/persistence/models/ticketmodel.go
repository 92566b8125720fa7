package models

type TicketModel struct {
	ID            uint   `gorm:"primaryKey"`
	Number        string `gorm:"uniqueIndex;size:50;not null"`
	ChannelID     string `gorm:"uniqueIndex;size:64"`
	UserID        string `gorm:"size:64;not null;index"`
	Type          string `gorm:"size:32;not null;index"`
	Priority      string `gorm:"size:16;not null;index"`
	Status        string `gorm:"size:16;not null;index"`
	FormData      string `gorm:"type:json"`
	ClaimedBy     string `gorm:"size:64"`
	ClaimedAt     *int64
	ClosedBy      string `gorm:"size:64"`
	ClosedAt      *int64
	CloseReason   string `gorm:"type:text"`
	TranscriptRef string `gorm:"size:255"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt     int64  `gorm:"autoUpdateTime:milli;not null"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (TicketModel) TableName() string {
	return "tickets"
}
