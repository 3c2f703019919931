package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of a purchase order. Everything
// past issued is derived from invoice coverage, never hand-set.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusIssued            PurchaseOrderStatus = "issued"
	PurchaseOrderStatusPartiallyInvoiced PurchaseOrderStatus = "partially_invoiced"
	PurchaseOrderStatusFullyInvoiced     PurchaseOrderStatus = "fully_invoiced"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusIssued,
	PurchaseOrderStatusPartiallyInvoiced,
	PurchaseOrderStatusFullyInvoiced,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further invoice-driven transitions apply.
func (p PurchaseOrderStatus) IsTerminal() bool {
	return p == PurchaseOrderStatusCancelled
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
