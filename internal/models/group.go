package models

import "time"

// Group is a house or unit whose residents vote and pay as one.
type Group struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null;uniqueIndex"` // Display name, e.g. house number.
	Address     string `gorm:"type:text"`                      // Street address.
	Description string `gorm:"type:text"`                      // Free-form notes.

	AdminUserID *uint64 `gorm:"index"`                  // Group-level admin.
	AdminUser   *User   `gorm:"foreignKey:AdminUserID"` // Group admin record.

	Memberships []GroupMembership `gorm:"foreignKey:GroupID"` // Member rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GroupMembership links a user to a group.
type GroupMembership struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID uint64 `gorm:"not null;uniqueIndex:idx_group_memberships_group_user"` // Owning group.
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_group_memberships_group_user;index"`
	Group   *Group `gorm:"foreignKey:GroupID"`
	User    *User  `gorm:"foreignKey:UserID"`

	Status string `gorm:"type:varchar(16);not null;default:'active';index"` // Membership status: active or inactive.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
