package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItem is a line on an invoice; total always equals quantity times
// unit price.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
