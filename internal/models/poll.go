package models

import "time"

// Poll is a question put to every group.
type Poll struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string     `gorm:"type:text;not null"`                              // Question title.
	Description string     `gorm:"type:text"`                                       // Details.
	Status      string     `gorm:"type:varchar(16);not null;default:'draft';index"` // draft, active or closed.
	ClosesAt    *time.Time // Informational closing date.

	CreatedBy uint64       `gorm:"not null"`         // Creating admin.
	Options   []PollOption `gorm:"foreignKey:PollID"` // Ordered options.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PollOption is one selectable answer of a poll.
type PollOption struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PollID      uint64   `gorm:"not null;index"`     // Owning poll.
	Label       string   `gorm:"type:text;not null"` // Answer label.
	Description string   `gorm:"type:text"`          // Optional details.
	Amount      *float64 `gorm:"type:decimal(20,2)"` // Optional cost attached to the option.
	Position    int      `gorm:"not null;default:0"` // Display order.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Vote is the single selection of a group in a poll.
type Vote struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PollID   uint64 `gorm:"not null;uniqueIndex:idx_votes_poll_group"` // Poll voted on.
	GroupID  uint64 `gorm:"not null;uniqueIndex:idx_votes_poll_group"` // Voting group.
	OptionID uint64 `gorm:"not null;index"`                            // Selected option.
	UserID   uint64 `gorm:"not null"`                                  // Member who cast the vote.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
