package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog records a workflow change for the activity feed.
type ActivityLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ActorID    uint64         `gorm:"not null;index"`                                      // User who made the change.
	EntityType string         `gorm:"type:varchar(32);not null;index:idx_activity_entity"` // poll, campaign, ...
	EntityID   uint64         `gorm:"not null;index:idx_activity_entity"`
	Action     string         `gorm:"type:varchar(32);not null"` // launch, close, confirm, ...
	Details    datatypes.JSON `gorm:"type:jsonb"`                // Structured details.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
