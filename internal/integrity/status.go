package integrity

import (
	"github.com/shopspring/decimal"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
)

// DerivePurchaseOrderStatus computes the invoice-driven part of the purchase
// order state machine. Cancelled is final and passes through untouched; any
// other status is strictly a function of how much of the grand total the
// linked invoices cover. Coverage lifts a draft order too, so invoicing
// never leaves a covered order stuck in draft.
func DerivePurchaseOrderStatus(current enums.PurchaseOrderStatus, grandTotal, invoicedSum decimal.Decimal) enums.PurchaseOrderStatus {
	if current == enums.PurchaseOrderStatusCancelled {
		return current
	}
	switch {
	case invoicedSum.GreaterThanOrEqual(grandTotal) && grandTotal.GreaterThan(decimal.Zero):
		return enums.PurchaseOrderStatusFullyInvoiced
	case invoicedSum.GreaterThan(decimal.Zero):
		return enums.PurchaseOrderStatusPartiallyInvoiced
	case current == enums.PurchaseOrderStatusDraft:
		return current
	default:
		// All coverage gone: a formerly invoiced order falls back to issued.
		return enums.PurchaseOrderStatusIssued
	}
}
