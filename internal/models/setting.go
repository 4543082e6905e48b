package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores a runtime setting editable by global admins.
type Setting struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"` // Setting key.
	Value     datatypes.JSON `gorm:"type:jsonb"`                   // JSON-encoded value.
	UpdatedBy *uint64        // Admin who last changed it.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
