package models

import "time"

// Post is an announcement published to residents.
type Post struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string     `gorm:"type:text;not null"`                              // Headline.
	Body        string     `gorm:"type:text;not null"`                              // Content.
	Status      string     `gorm:"type:varchar(16);not null;default:'draft';index"` // draft or published.
	PublishedAt *time.Time `gorm:"index"`                                           // Set while published.
	AuthorID    uint64     `gorm:"not null"`                                        // Writing admin.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
