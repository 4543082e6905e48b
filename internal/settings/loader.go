package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/streethall/hoa/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Refresh reloads all settings from the database into the in-memory snapshot.
// It must run at startup, otherwise readers see defaults until the first Save.
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).Order("key ASC").Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings: load: %w", errFind)
	}

	values := make(map[string]json.RawMessage, len(rows))
	latest := time.Time{}
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		values[key] = json.RawMessage(row.Value)
		if row.UpdatedAt.After(latest) {
			latest = row.UpdatedAt
		}
	}

	Store(latest, values)
	return nil
}

// Save upserts the given values and refreshes the snapshot. Unknown keys are rejected.
func Save(ctx context.Context, db *gorm.DB, actorID uint64, values map[string]json.RawMessage) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	for key := range values {
		if !Known(key) {
			return fmt.Errorf("settings: unknown key %q", key)
		}
	}

	now := time.Now().UTC()
	errTx := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			row := models.Setting{
				Key:       key,
				Value:     datatypes.JSON(value),
				UpdatedBy: &actorID,
				UpdatedAt: now,
			}
			if errSave := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
			}).Create(&row).Error; errSave != nil {
				return errSave
			}
		}
		return nil
	})
	if errTx != nil {
		return fmt.Errorf("settings: save: %w", errTx)
	}
	return Refresh(ctx, db)
}
