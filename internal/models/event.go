package models

import "time"

// Event is a scheduled neighborhood event.
type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string     `gorm:"type:text;not null"` // Event title.
	Description string     `gorm:"type:text"`          // Details.
	Location    string     `gorm:"type:text"`          // Where it happens.
	StartsAt    time.Time  `gorm:"not null;index"`     // Start time.
	EndsAt      *time.Time // Optional end time.
	CreatedBy   uint64     `gorm:"not null"` // Creating admin.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
