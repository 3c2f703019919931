package freight

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLRRequestInput books a freight movement with a transporter vendor.
// The invoice link is never caller-settable at creation.
type CreateLRRequestInput struct {
	LRNumber      string           `json:"lr_number" validate:"required"`
	TransporterID string           `json:"transporter_id" validate:"required,uuid"`
	FromLocation  string           `json:"from_location" validate:"required"`
	ToLocation    string           `json:"to_location" validate:"required"`
	PriceOffered  decimal.Decimal  `json:"price_offered" validate:"required"`
	ExtraCost     *decimal.Decimal `json:"extra_cost"`
	Notes         *string          `json:"notes"`
}

// SettlePricingInput closes out the negotiated price for a movement.
type SettlePricingInput struct {
	PriceSettled decimal.Decimal  `json:"price_settled" validate:"required"`
	ExtraCost    *decimal.Decimal `json:"extra_cost"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}

// CreateLorryReceiptInput records a scanned receipt. LRDate is deliberately a
// free-form string; upstream data is not reliably parseable as a date.
type CreateLorryReceiptInput struct {
	LRNo            string `json:"lr_no" validate:"required"`
	LRDate          string `json:"lr_date" validate:"required"`
	City            string `json:"city" validate:"required"`
	TransporterName string `json:"transporter_name" validate:"required"`
	Warehouse       string `json:"warehouse" validate:"required"`
	VehicleType     string `json:"vehicle_type" validate:"required"`
	VehicleNumber   string `json:"vehicle_number" validate:"required"`
}
