package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
)

// PurchaseOrder represents a committed order raised against a vendor.
// Subtotal, tax amount, and grand total are derived from the items and are
// recomputed on every write; status past issued is derived from invoice
// coverage.
type PurchaseOrder struct {
	ID          uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PONumber    string                    `gorm:"column:po_number;type:text;not null;uniqueIndex"`
	VendorID    uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	CreatedByID uuid.UUID                 `gorm:"column:created_by_id;type:uuid;not null"`
	Status      enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Subtotal    decimal.Decimal           `gorm:"column:subtotal;type:numeric(14,2);not null"`
	TaxRate     decimal.Decimal           `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	TaxAmount   decimal.Decimal           `gorm:"column:tax_amount;type:numeric(14,2);not null"`
	GrandTotal  decimal.Decimal           `gorm:"column:grand_total;type:numeric(14,2);not null"`
	Notes       *string                   `gorm:"column:notes"`
	Items       []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
