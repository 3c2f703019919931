package models

import (
	"time"

	"github.com/google/uuid"
)

// LorryReceipt is a flat receipt record with no declared relationship to
// LRRequest or Vendor. Kept as its own aggregate; any correlation with
// freight requests is a reconciliation concern, not a foreign key.
//
// LRDate is a plain string in the upstream schema, unlike every other
// timestamp. Reproduced as-is: stored values are not guaranteed parseable.
type LorryReceipt struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LRNo            string    `gorm:"column:lr_no;type:text;not null;uniqueIndex"`
	LRDate          string    `gorm:"column:lr_date;type:text;not null"`
	City            string    `gorm:"column:city;not null"`
	TransporterName string    `gorm:"column:transporter_name;not null"`
	Warehouse       string    `gorm:"column:warehouse;not null"`
	VehicleType     string    `gorm:"column:vehicle_type;not null"`
	VehicleNumber   string    `gorm:"column:vehicle_number;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
