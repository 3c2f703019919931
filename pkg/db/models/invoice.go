package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice represents a billable document, whether raised against a purchase
// order or standing alone. The reference number is the globally unique key;
// the invoice number is the vendor's human-readable label and may repeat.
type Invoice struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReferenceNumber string             `gorm:"column:reference_number;type:text;not null;uniqueIndex"`
	InvoiceNumber   *string            `gorm:"column:invoice_number"`
	VendorID        uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null"`
	POID            *uuid.UUID         `gorm:"column:po_id;type:uuid"`
	Subtotal        decimal.Decimal    `gorm:"column:subtotal;type:numeric(14,2);not null"`
	TaxRate         decimal.Decimal    `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	TaxAmount       decimal.Decimal    `gorm:"column:tax_amount;type:numeric(14,2);not null"`
	GrandTotal      decimal.Decimal    `gorm:"column:grand_total;type:numeric(14,2);not null"`
	HasDiscrepancy  bool               `gorm:"column:has_discrepancy;not null;default:false"`
	Notes           *string            `gorm:"column:notes"`
	Items           []InvoiceItem      `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	References      []InvoiceReference `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
