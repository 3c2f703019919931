package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LRRequest is a freight movement booked with a transporter vendor.
// IsInvoiced mirrors whether InvoiceID is set; the pair is only ever written
// together in one statement so the flag cannot drift.
type LRRequest struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LRNumber      string           `gorm:"column:lr_number;type:text;not null;uniqueIndex"`
	TransporterID uuid.UUID        `gorm:"column:transporter_id;type:uuid;not null"`
	InvoiceID     *uuid.UUID       `gorm:"column:invoice_id;type:uuid"`
	IsInvoiced    bool             `gorm:"column:is_invoiced;not null;default:false"`
	FromLocation  string           `gorm:"column:from_location;not null"`
	ToLocation    string           `gorm:"column:to_location;not null"`
	PriceOffered  decimal.Decimal  `gorm:"column:price_offered;type:numeric(14,2);not null"`
	PriceSettled  *decimal.Decimal `gorm:"column:price_settled;type:numeric(14,2)"`
	ExtraCost     decimal.Decimal  `gorm:"column:extra_cost;type:numeric(14,2);not null;default:0"`
	Notes         *string          `gorm:"column:notes"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
