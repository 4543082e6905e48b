// Package activity records workflow changes and fans them out to subscribers.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streethall/hoa/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types recorded in the activity log.
const (
	EntityUser           = "user"
	EntityGroup          = "group"
	EntityMembership     = "membership"
	EntityPoll           = "poll"
	EntityVote           = "vote"
	EntityCampaign       = "campaign"
	EntityContribution   = "contribution"
	EntityPaymentRequest = "payment_request"
	EntityPaymentReport  = "payment_report"
	EntityEvent          = "event"
	EntityPost           = "post"
)

// Entry describes one change.
type Entry struct {
	ActorID    uint64         `json:"actor_id"`
	EntityType string         `json:"entity_type"`
	EntityID   uint64         `json:"entity_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	At         time.Time      `json:"at"`
}

// Publisher delivers committed entries to subscribers.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Recorder persists entries and publishes them.
type Recorder struct {
	publisher Publisher
}

// NewRecorder builds a Recorder. A nil publisher disables fan-out.
func NewRecorder(publisher Publisher) *Recorder {
	return &Recorder{publisher: publisher}
}

// Record writes entry through tx so it commits or rolls back with the change it describes.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("activity: nil tx")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	var details datatypes.JSON
	if len(entry.Details) > 0 {
		raw, errMarshal := json.Marshal(entry.Details)
		if errMarshal != nil {
			return fmt.Errorf("activity: marshal details: %w", errMarshal)
		}
		details = datatypes.JSON(raw)
	}
	row := models.ActivityLog{
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Details:    details,
		CreatedAt:  entry.At,
	}
	if errCreate := tx.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("activity: record: %w", errCreate)
	}
	return nil
}

// Publish fans out committed entries. Failures are logged, never returned: the change already committed.
func (r *Recorder) Publish(ctx context.Context, entries ...Entry) {
	if r == nil || r.publisher == nil {
		return
	}
	for _, entry := range entries {
		if errPublish := r.publisher.Publish(ctx, entry); errPublish != nil {
			log.WithError(errPublish).WithFields(log.Fields{
				"entity_type": entry.EntityType,
				"entity_id":   entry.EntityID,
				"action":      entry.Action,
			}).Warn("activity: publish failed")
		}
	}
}

// Query filters the activity feed.
type Query struct {
	EntityType string
	EntityID   uint64
	Limit      int
}

// List returns the newest entries matching q.
func List(ctx context.Context, db *gorm.DB, q Query) ([]models.ActivityLog, error) {
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tx := db.WithContext(ctx).Model(&models.ActivityLog{})
	if q.EntityType != "" {
		tx = tx.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != 0 {
		tx = tx.Where("entity_id = ?", q.EntityID)
	}
	var rows []models.ActivityLog
	if errFind := tx.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("activity: list: %w", errFind)
	}
	return rows, nil
}
