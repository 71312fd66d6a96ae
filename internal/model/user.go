package model

import "time"

// User represents a registered account.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(191);uniqueIndex;not null"`
	Password  string `gorm:"not null"` // bcrypt hash
	CreatedAt time.Time

	History []HistoryEntry `gorm:"foreignKey:UserID"`
}
