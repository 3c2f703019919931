package enums

import "fmt"

// EntityKind names the entity types a document may weakly reference.
type EntityKind string

const (
	EntityKindUser          EntityKind = "user"
	EntityKindVendor        EntityKind = "vendor"
	EntityKindPurchaseOrder EntityKind = "purchase_order"
	EntityKindInvoice       EntityKind = "invoice"
	EntityKindLRRequest     EntityKind = "lr_request"
	EntityKindLorryReceipt  EntityKind = "lorry_receipt"
)

var validEntityKinds = []EntityKind{
	EntityKindUser,
	EntityKindVendor,
	EntityKindPurchaseOrder,
	EntityKindInvoice,
	EntityKindLRRequest,
	EntityKindLorryReceipt,
}

// String implements fmt.Stringer.
func (e EntityKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityKind.
func (e EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
