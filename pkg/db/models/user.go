package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
)

// User represents the canonical identity entity. Credential, session, and
// verification storage is owned by the external auth module; only the stable
// user id is consumed here.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	Name         string         `gorm:"column:name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'user'"`
	Banned       bool           `gorm:"column:banned;not null;default:false"`
	BanReason    *string        `gorm:"column:ban_reason"`
	BanExpiresAt *time.Time     `gorm:"column:ban_expires_at"`
	VendorID     *uuid.UUID     `gorm:"column:vendor_id;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
