package integrity

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
)

// moneyPlaces is the scale of every stored money column.
const moneyPlaces = 2

// LineInput is the caller-facing shape of a line item before recomputation.
// Total is optional; when present it is checked against the recomputed value.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     *decimal.Decimal
}

// Totals is the derived money block shared by invoices and purchase orders.
type Totals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// LineTotal recomputes quantity times unit price at money scale.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(moneyPlaces)
}

// ComputeTotals derives the full money block from line inputs and a tax rate.
// Caller-supplied line totals that disagree with the recomputation are
// rejected rather than corrected, so calling code is forced to fix its own
// arithmetic.
func ComputeTotals(lines []LineInput, taxRate decimal.Decimal) (Totals, error) {
	if taxRate.IsNegative() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}

	totals := Totals{
		LineTotals: make([]decimal.Decimal, 0, len(lines)),
		Subtotal:   decimal.Zero,
	}
	for i, line := range lines {
		if line.Quantity.IsNegative() || line.UnitPrice.IsNegative() {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity and unit price must not be negative").
				WithDetails(map[string]int{"line": i})
		}
		computed := LineTotal(line.Quantity, line.UnitPrice)
		if line.Total != nil && !line.Total.Equal(computed) {
			return Totals{}, pkgerrors.New(pkgerrors.CodeComputedValueMismatch, "line total disagrees with quantity times unit price").
				WithDetails(map[string]string{
					"supplied": line.Total.String(),
					"computed": computed.String(),
				})
		}
		totals.LineTotals = append(totals.LineTotals, computed)
		totals.Subtotal = totals.Subtotal.Add(computed)
	}

	totals.Subtotal = totals.Subtotal.Round(moneyPlaces)
	totals.TaxAmount = totals.Subtotal.Mul(taxRate).Round(moneyPlaces)
	totals.GrandTotal = totals.Subtotal.Add(totals.TaxAmount)
	return totals, nil
}

// VerifyDocumentTotals checks caller-supplied document-level totals against a
// recomputed block. Nil fields are treated as "not supplied" and skipped.
func VerifyDocumentTotals(computed Totals, subtotal, taxAmount, grandTotal *decimal.Decimal) error {
	if subtotal != nil && !subtotal.Equal(computed.Subtotal) {
		return mismatch("subtotal", subtotal.String(), computed.Subtotal.String())
	}
	if taxAmount != nil && !taxAmount.Equal(computed.TaxAmount) {
		return mismatch("tax_amount", taxAmount.String(), computed.TaxAmount.String())
	}
	if grandTotal != nil && !grandTotal.Equal(computed.GrandTotal) {
		return mismatch("grand_total", grandTotal.String(), computed.GrandTotal.String())
	}
	return nil
}

func mismatch(field, supplied, computed string) error {
	return pkgerrors.New(pkgerrors.CodeComputedValueMismatch, "supplied "+field+" disagrees with recomputed value").
		WithDetails(map[string]string{
			"field":    field,
			"supplied": supplied,
			"computed": computed,
		})
}
