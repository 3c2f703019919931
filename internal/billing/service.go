package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/internal/integrity"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type vendorChecker interface {
	VendorExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

// orderDirectory is the slice of the purchasing service billing needs:
// lookups for the same-vendor check and status recomputation after every
// write that moves invoice coverage. Both run inside billing's transaction.
type orderDirectory interface {
	FindOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.PurchaseOrder, error)
	RecomputeStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// Service owns the invoice aggregate: header, lines, billing windows, and
// the coupling to purchase order status.
type Service struct {
	repo    *Repository
	vendors vendorChecker
	orders  orderDirectory
	tx      txRunner
}

func NewService(repo *Repository, vendors vendorChecker, orders orderDirectory, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor checker required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, vendors: vendors, orders: orders, tx: tx}, nil
}

// Create inserts an invoice with its lines. A linked purchase order must
// belong to the same vendor; the order's status is recomputed before commit
// so coverage and status never drift apart.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	vendorID, err := uuid.Parse(input.VendorID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id is not a uuid")
	}
	var poID *uuid.UUID
	if input.POID != nil {
		parsed, err := uuid.Parse(*input.POID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "po_id is not a uuid")
		}
		poID = &parsed
	}

	lines := make([]integrity.LineInput, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, integrity.LineInput{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}
	totals, err := integrity.ComputeTotals(lines, input.TaxRate)
	if err != nil {
		return nil, err
	}
	if err := integrity.VerifyDocumentTotals(totals, input.Subtotal, input.TaxAmount, input.GrandTotal); err != nil {
		return nil, err
	}

	var created *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.vendors.VendorExists(ctx, tx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vendor")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "vendor does not exist").
				WithDetails(map[string]string{"vendor_id": vendorID.String()})
		}
		if poID != nil {
			if err := s.checkOrderLink(ctx, tx, *poID, vendorID); err != nil {
				return err
			}
		}

		invoice := &models.Invoice{
			ID:              uuid.New(),
			ReferenceNumber: input.ReferenceNumber,
			InvoiceNumber:   input.InvoiceNumber,
			VendorID:        vendorID,
			POID:            poID,
			Subtotal:        totals.Subtotal,
			TaxRate:         input.TaxRate,
			TaxAmount:       totals.TaxAmount,
			GrandTotal:      totals.GrandTotal,
			Notes:           input.Notes,
		}
		for i, item := range input.Items {
			invoice.Items = append(invoice.Items, models.InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   invoice.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       totals.LineTotals[i],
			})
		}
		if err := s.repo.WithTx(tx).Create(ctx, invoice); err != nil {
			if db.IsUniqueViolation(err, "idx_invoices_reference_number") {
				return pkgerrors.New(pkgerrors.CodeDuplicateKey, "reference number already claimed").
					WithDetails(map[string]string{"reference_number": input.ReferenceNumber})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		if poID != nil {
			if err := s.orders.RecomputeStatus(ctx, tx, *poID); err != nil {
				return err
			}
		}
		created = invoice
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

// Get loads an invoice with its lines and billing windows.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return loadInvoice(ctx, s.repo, id)
}

// GetByReferenceNumber resolves an invoice by its business key.
func (s *Service) GetByReferenceNumber(ctx context.Context, referenceNumber string) (*models.Invoice, error) {
	invoice, err := s.repo.FindByReferenceNumber(ctx, referenceNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// ListByVendor pages a vendor's invoices. The second return value is the
// encoded cursor for the next page, empty on the last page.
func (s *Service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Invoice, string, error) {
	invoices, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return invoices, nextCursor, nil
}

// Update edits the header under the optimistic check. A tax rate change
// reprices the whole document; a PO link change re-runs the same-vendor
// check and recomputes both the old and new order.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (*models.Invoice, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var newPOID *uuid.UUID
	if !input.ClearPO && input.POID != nil {
		parsed, err := uuid.Parse(*input.POID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "po_id is not a uuid")
		}
		newPOID = &parsed
	}

	var updated *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(input.BaseUpdatedAt, invoice.UpdatedAt); err != nil {
			return err
		}

		if input.InvoiceNumber != nil {
			invoice.InvoiceNumber = input.InvoiceNumber
		}
		if input.Notes != nil {
			invoice.Notes = input.Notes
		}

		previousPO := invoice.POID
		switch {
		case input.ClearPO:
			invoice.POID = nil
		case newPOID != nil:
			if err := s.checkOrderLink(ctx, tx, *newPOID, invoice.VendorID); err != nil {
				return err
			}
			invoice.POID = newPOID
		}

		if input.TaxRate != nil {
			invoice.TaxRate = *input.TaxRate
			lines := make([]integrity.LineInput, 0, len(invoice.Items))
			for _, item := range invoice.Items {
				lines = append(lines, integrity.LineInput{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
			}
			totals, err := integrity.ComputeTotals(lines, invoice.TaxRate)
			if err != nil {
				return err
			}
			invoice.Subtotal = totals.Subtotal
			invoice.TaxAmount = totals.TaxAmount
			invoice.GrandTotal = totals.GrandTotal
		}

		rows, err := repo.Save(ctx, invoice, invoice.UpdatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		if err := s.recomputeOrders(ctx, tx, previousPO, invoice.POID); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// AddItem appends a line and reprices the invoice; any linked order picks up
// the coverage change before commit.
func (s *Service) AddItem(ctx context.Context, invoiceID uuid.UUID, input ItemInput, baseUpdatedAt time.Time) (*models.Invoice, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadForEdit(ctx, repo, invoiceID, baseUpdatedAt)
		if err != nil {
			return err
		}

		line, err := integrity.ComputeTotals([]integrity.LineInput{{
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
			Total:     input.Total,
		}}, invoice.TaxRate)
		if err != nil {
			return err
		}

		item := &models.InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			Total:       line.LineTotals[0],
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add invoice line")
		}

		updated, err = s.repriceAndRecompute(ctx, tx, repo, invoice)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// UpdateItem rewrites one line and reprices the invoice.
func (s *Service) UpdateItem(ctx context.Context, invoiceID, itemID uuid.UUID, input UpdateItemInput) (*models.Invoice, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadForEdit(ctx, repo, invoiceID, input.BaseUpdatedAt)
		if err != nil {
			return err
		}

		var item *models.InvoiceItem
		for i := range invoice.Items {
			if invoice.Items[i].ID == itemID {
				item = &invoice.Items[i]
				break
			}
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice line not found")
		}

		if input.Description != nil {
			item.Description = *input.Description
		}
		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity and unit price must not be negative")
		}
		item.Total = integrity.LineTotal(item.Quantity, item.UnitPrice)
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice line")
		}

		updated, err = s.repriceAndRecompute(ctx, tx, repo, invoice)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// RemoveItem drops a line. The last line cannot be removed; an invoice with
// no lines is meaningless.
func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID, baseUpdatedAt time.Time) (*models.Invoice, error) {
	var updated *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.loadForEdit(ctx, repo, invoiceID, baseUpdatedAt)
		if err != nil {
			return err
		}

		found := false
		for _, item := range invoice.Items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice line not found")
		}
		if len(invoice.Items) == 1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice must keep at least one line")
		}

		if err := repo.DeleteItem(ctx, invoice.ID, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice line")
		}

		updated, err = s.repriceAndRecompute(ctx, tx, repo, invoice)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// SetDiscrepancy flips the manual review flag. It has no effect on the
// numeric fields.
func (s *Service) SetDiscrepancy(ctx context.Context, id uuid.UUID, flag bool, notes *string, baseUpdatedAt time.Time) (*models.Invoice, error) {
	var updated *models.Invoice
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, invoice.UpdatedAt); err != nil {
			return err
		}

		expected := invoice.UpdatedAt
		invoice.HasDiscrepancy = flag
		if notes != nil {
			invoice.Notes = notes
		}
		rows, err := repo.Save(ctx, invoice, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = invoice
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// AddReference records a billed period window against the invoice. Windows
// never feed the totals.
func (s *Service) AddReference(ctx context.Context, invoiceID uuid.UUID, input ReferenceInput) (*models.InvoiceReference, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.PeriodTo.Before(input.PeriodFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period_to must not precede period_from")
	}

	if _, err := loadInvoice(ctx, s.repo, invoiceID); err != nil {
		return nil, err
	}
	reference := &models.InvoiceReference{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		PeriodFrom: input.PeriodFrom,
		PeriodTo:   input.PeriodTo,
		DueDate:    input.DueDate,
	}
	if err := s.repo.CreateReference(ctx, reference); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billing window")
	}
	return reference, nil
}

// MarkReferencePaid stamps the paid date on a billing window. Like every
// other update, the caller's last-known updated_at rides along for the
// optimistic check.
func (s *Service) MarkReferencePaid(ctx context.Context, invoiceID, referenceID uuid.UUID, paidAt time.Time, baseUpdatedAt time.Time) (*models.InvoiceReference, error) {
	var updated *models.InvoiceReference
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reference, err := repo.FindReference(ctx, invoiceID, referenceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "billing window not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing window")
		}
		if err := integrity.CheckBase(baseUpdatedAt, reference.UpdatedAt); err != nil {
			return err
		}

		expected := reference.UpdatedAt
		reference.PaidDate = &paidAt
		rows, err := repo.SaveReference(ctx, reference, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save billing window")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = reference
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// ListReferences returns the invoice's billing windows in period order.
func (s *Service) ListReferences(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceReference, error) {
	references, err := s.repo.ListReferences(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing windows")
	}
	return references, nil
}

// Delete removes an invoice under the restrict policy: the write is rejected
// while freight requests reference it. Lines and windows cascade, and a
// linked order's coverage is re-derived before commit.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := loadInvoice(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, invoice.UpdatedAt); err != nil {
			return err
		}

		links, err := repo.CountFreightLinks(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count freight links")
		}
		if links > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice still referenced by freight requests").
				WithDetails(map[string]int64{"lr_requests": links})
		}

		if err := repo.DeleteItemsByInvoice(ctx, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice lines")
		}
		if err := repo.DeleteReferencesByInvoice(ctx, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete billing windows")
		}
		rows, err := repo.Delete(ctx, invoice.ID, invoice.UpdatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		if invoice.POID != nil {
			if err := s.orders.RecomputeStatus(ctx, tx, *invoice.POID); err != nil {
				return err
			}
		}
		return nil
	})
}

// InvoiceExists is the referential-check surface consumed by the freight
// write paths.
func (s *Service) InvoiceExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	return s.repo.InvoiceExists(ctx, tx, id)
}

// checkOrderLink enforces invariant: a linked order must exist, must not be
// cancelled, and must belong to the invoice's vendor.
func (s *Service) checkOrderLink(ctx context.Context, tx *gorm.DB, poID, vendorID uuid.UUID) error {
	order, err := s.orders.FindOrder(ctx, tx, poID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "purchase order does not exist").
				WithDetails(map[string]string{"po_id": poID.String()})
		}
		return err
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order is cancelled").
			WithDetails(map[string]string{"po_id": poID.String()})
	}
	if order.VendorID != vendorID {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase order belongs to a different vendor").
			WithDetails(map[string]string{
				"po_vendor_id":      order.VendorID.String(),
				"invoice_vendor_id": vendorID.String(),
			})
	}
	return nil
}

func (s *Service) loadForEdit(ctx context.Context, repo *Repository, invoiceID uuid.UUID, baseUpdatedAt time.Time) (*models.Invoice, error) {
	invoice, err := loadInvoice(ctx, repo, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := integrity.CheckBase(baseUpdatedAt, invoice.UpdatedAt); err != nil {
		return nil, err
	}
	return invoice, nil
}

// repriceAndRecompute reloads the lines, rewrites the header money block,
// and re-derives the linked order's status.
func (s *Service) repriceAndRecompute(ctx context.Context, tx *gorm.DB, repo *Repository, invoice *models.Invoice) (*models.Invoice, error) {
	items, err := repo.FindItems(ctx, invoice.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload invoice lines")
	}

	lines := make([]integrity.LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, integrity.LineInput{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	totals, err := integrity.ComputeTotals(lines, invoice.TaxRate)
	if err != nil {
		return nil, err
	}

	expected := invoice.UpdatedAt
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.GrandTotal = totals.GrandTotal
	invoice.Items = items
	rows, err := repo.Save(ctx, invoice, expected)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice totals")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
	}
	if invoice.POID != nil {
		if err := s.orders.RecomputeStatus(ctx, tx, *invoice.POID); err != nil {
			return nil, err
		}
	}
	return invoice, nil
}

func (s *Service) recomputeOrders(ctx context.Context, tx *gorm.DB, previous, current *uuid.UUID) error {
	if previous != nil && (current == nil || *previous != *current) {
		if err := s.orders.RecomputeStatus(ctx, tx, *previous); err != nil {
			return err
		}
	}
	if current != nil {
		if err := s.orders.RecomputeStatus(ctx, tx, *current); err != nil {
			return err
		}
	}
	return nil
}

func loadInvoice(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}
