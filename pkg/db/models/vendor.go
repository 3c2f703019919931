package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor represents a supplier or transporter profile. The postal address is
// a single-value association even though the schema hosts it in its own
// table: addresses carry a unique vendor reference.
type Vendor struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	GSTIN            *string   `gorm:"column:gstin"`
	PAN              *string   `gorm:"column:pan"`
	PaymentTerms     *string   `gorm:"column:payment_terms"`
	ContactEmail     *string   `gorm:"column:contact_email"`
	ContactPhone     *string   `gorm:"column:contact_phone"`
	ProfileCompleted bool      `gorm:"column:profile_completed;not null;default:false"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true"`
	Address          *Address  `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
