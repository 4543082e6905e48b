package db

import (
	"fmt"

	"github.com/streethall/hoa/internal/models"
	"gorm.io/gorm"
)

// Models lists every table managed by Migrate, parents first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Poll{},
		&models.PollOption{},
		&models.Vote{},
		&models.FundraisingCampaign{},
		&models.Contribution{},
		&models.PaymentRequest{},
		&models.PaymentReport{},
		&models.Event{},
		&models.Post{},
		&models.Setting{},
		&models.ActivityLog{},
	}
}

// Migrate creates or updates the schema.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(Models()...); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
