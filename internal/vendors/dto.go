package vendors

import "time"

// CreateVendorInput carries the caller-supplied vendor profile. Defaults
// (profile incomplete, active) are applied by the service, never by callers.
type CreateVendorInput struct {
	Name         string  `json:"name" validate:"required,min=2"`
	GSTIN        *string `json:"gstin" validate:"omitempty,min=5"`
	PAN          *string `json:"pan" validate:"omitempty,min=5"`
	PaymentTerms *string `json:"payment_terms"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone"`
}

// UpdateVendorInput updates profile fields; nil means "leave unchanged".
type UpdateVendorInput struct {
	Name             *string `json:"name" validate:"omitempty,min=2"`
	GSTIN            *string `json:"gstin"`
	PAN              *string `json:"pan"`
	PaymentTerms     *string `json:"payment_terms"`
	ContactEmail     *string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     *string `json:"contact_phone"`
	ProfileCompleted *bool   `json:"profile_completed"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}

// AddressInput is the full replacement payload for a vendor's single postal
// address.
type AddressInput struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country"`
}
