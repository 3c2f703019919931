package users

import "time"

// CreateUserInput carries the caller-supplied identity fields. Credentials
// live in the external auth module; only the profile is stored here.
type CreateUserInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
	Role  string `json:"role" validate:"omitempty,oneof=admin user vendor"`
}

// AssignVendorInput links a user to a vendor under the optimistic check.
type AssignVendorInput struct {
	VendorID      string    `json:"vendor_id" validate:"required,uuid"`
	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}

// BanInput flips the ban flag. Reason and expiry are only meaningful when
// banning; both are cleared on unban.
type BanInput struct {
	Banned    bool       `json:"banned"`
	Reason    *string    `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"`

	BaseUpdatedAt time.Time `json:"base_updated_at" validate:"required"`
}
