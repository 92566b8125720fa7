package models

type UserModel struct {
	ID             uint    `gorm:"primaryKey"`
	PlatformID     string  `gorm:"uniqueIndex;size:64;not null"`
	TicketsCreated int     `gorm:"not null;default:0"`
	TicketsClosed  int     `gorm:"not null;default:0"`
	GamesPlayed    int     `gorm:"not null;default:0"`
	RatingAverage  float64 `gorm:"not null;default:0"`
	RatingCount    int     `gorm:"not null;default:0"`
	CreatedAt      int64   `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt      int64   `gorm:"autoUpdateTime:milli;not null"`
}

func (UserModel) TableName() string {
	return "users"
}
