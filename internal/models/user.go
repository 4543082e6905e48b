package models

import "time"

// User represents a resident or administrator account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text"`                      // Contact email.
	Name     string `gorm:"type:text"`                      // Display name.
	Phone    string `gorm:"type:text"`                      // Contact phone.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Role   string `gorm:"type:varchar(16);not null;default:'user';index"`   // Global role: user or admin.
	Status string `gorm:"type:varchar(16);not null;default:'active';index"` // Account status: active or inactive.

	TOTPSecret        string `gorm:"type:text"` // Enabled TOTP secret for MFA.
	TOTPPendingSecret string `gorm:"type:text"` // Secret awaiting confirmation.

	Memberships []GroupMembership `gorm:"foreignKey:UserID"` // Group memberships.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
