package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem is a line on a purchase order. Total always equals
// quantity times unit price; the row is only ever written through its parent
// aggregate so the parent totals stay consistent.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null"`
	Description     string          `gorm:"column:description;not null"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
