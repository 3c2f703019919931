package purchasing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is one caller-supplied order line. Total is optional: when
// present it must equal quantity times unit price at money scale.
type ItemInput struct {
	Description string           `json:"description" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal  `json:"unit_price" validate:"required"`
	Total       *decimal.Decimal `json:"total"`
}

// CreateOrderInput creates a draft purchase order with its initial lines.
// Document-level totals are optional cross-checks, never inputs to storage.
type CreateOrderInput struct {
	PONumber    string          `json:"po_number" validate:"required"`
	VendorID    string          `json:"vendor_id" validate:"required,uuid"`
	CreatedByID string          `json:"created_by_id" validate:"required,uuid"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Notes       *string         `json:"notes"`
	Items       []ItemInput     `json:"items" validate:"min=1,dive"`

	Subtotal   *decimal.Decimal `json:"subtotal"`
	TaxAmount  *decimal.Decimal `json:"tax_amount"`
	GrandTotal *decimal.Decimal `json:"grand_total"`
}

// UpdateItemInput rewrites one line; the parent totals are recomputed in the
// same transaction.
type UpdateItemInput struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}
