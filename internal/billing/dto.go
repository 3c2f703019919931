package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is one caller-supplied invoice line. Total is optional: when
// present it must equal quantity times unit price at money scale.
type ItemInput struct {
	Description string           `json:"description" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal  `json:"unit_price" validate:"required"`
	Total       *decimal.Decimal `json:"total"`
}

// CreateInvoiceInput creates an invoice, optionally linked to a purchase
// order. The reference number is the globally unique key; the invoice number
// is the vendor's own label and may repeat.
type CreateInvoiceInput struct {
	ReferenceNumber string          `json:"reference_number" validate:"required"`
	InvoiceNumber   *string         `json:"invoice_number"`
	VendorID        string          `json:"vendor_id" validate:"required,uuid"`
	POID            *string         `json:"po_id" validate:"omitempty,uuid"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Notes           *string         `json:"notes"`
	Items           []ItemInput     `json:"items" validate:"min=1,dive"`

	Subtotal   *decimal.Decimal `json:"subtotal"`
	TaxAmount  *decimal.Decimal `json:"tax_amount"`
	GrandTotal *decimal.Decimal `json:"grand_total"`
}

// UpdateInvoiceInput edits the invoice header; nil means "leave unchanged".
// A tax rate change recomputes the money block; a PO link change re-runs the
// same-vendor check. ClearPO wins when both are set.
type UpdateInvoiceInput struct {
	InvoiceNumber *string          `json:"invoice_number"`
	Notes         *string          `json:"notes"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
	POID          *string          `json:"po_id" validate:"omitempty,uuid"`
	ClearPO       bool             `json:"clear_po"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}

// UpdateItemInput rewrites one line; the header totals are recomputed in the
// same transaction.
type UpdateItemInput struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}

// ReferenceInput records a billed period against the invoice.
type ReferenceInput struct {
	PeriodFrom time.Time  `json:"period_from" validate:"required"`
	PeriodTo   time.Time  `json:"period_to" validate:"required"`
	DueDate    *time.Time `json:"due_date"`
}
