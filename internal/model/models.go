package model

import "time"

// HistoryEntry is a persisted record of one analyzed curhat submission.
//
// Rows are immutable after creation and are removed only when the owning
// account is deleted. UserID is nullable: the column tolerates legacy
// anonymous rows, although the API never creates them.
type HistoryEntry struct {
	ID          string     `gorm:"type:varchar(36);primaryKey"` // uuid
	UserID      *uint      `gorm:"index"`
	StressLabel string     `gorm:"type:varchar(32)"`
	StressScore *float64   // percentage in [0,100]; nil when the analysis carried no numeric value
	Emotion     string     `gorm:"type:varchar(32)"`
	Text        string     `gorm:"type:text"`
	Feedback    string     `gorm:"type:text"`
	Videos      string     `gorm:"type:text"` // JSON array of {title,url}
	CreatedAt   time.Time
}

// ResetCode is a single-use numeric password-reset code.
//
// Codes are never deleted; validity is checked at read time
// (unused and not past ExpiresAt).
type ResetCode struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(191);index;not null"`
	Code      string    `gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
	CreatedAt time.Time
}

// Feedback is a user-submitted opinion about the service, independent of User.
type Feedback struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);not null"`
	Text      string `gorm:"type:text;not null"`
	Result    string `gorm:"type:text"` // optional structured analysis payload (JSON)
	CreatedAt time.Time
}

// Article is read-only reference content surfaced to the frontend.
type Article struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"type:varchar(255);not null"`
	Link  string `gorm:"type:varchar(255);not null"`
	Image string `gorm:"type:varchar(255)"`
	Intro string `gorm:"type:text"`
}
