package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is the postal address owned by exactly one vendor. The unique
// vendor_id index is what turns the schema's one-to-many into one-to-one.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null;default:'IN'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
