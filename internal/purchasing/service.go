package purchasing

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
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// vendorGate is the slice of the vendors repository this package needs:
// existence and activation checks inside the caller's transaction.
type vendorGate interface {
	VendorExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	VendorActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type userChecker interface {
	UserExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

// Service owns the purchase order aggregate: header, lines, derived totals,
// and the invoice-driven status machine.
type Service struct {
	repo    *Repository
	vendors vendorGate
	users   userChecker
	tx      txRunner
}

func NewService(repo *Repository, vendors vendorGate, users userChecker, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchasing repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor gate required")
	}
	if users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, vendors: vendors, users: users, tx: tx}, nil
}

// Create inserts a draft order with its lines. Totals are recomputed from
// the lines; caller-supplied figures that disagree are rejected outright.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*models.PurchaseOrder, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	vendorID, err := uuid.Parse(input.VendorID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id is not a uuid")
	}
	createdByID, err := uuid.Parse(input.CreatedByID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created_by_id is not a uuid")
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

	var created *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requireActiveVendor(ctx, tx, vendorID); err != nil {
			return err
		}
		exists, err := s.users.UserExists(ctx, tx, createdByID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check creator")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "creating user does not exist").
				WithDetails(map[string]string{"created_by_id": createdByID.String()})
		}

		order := &models.PurchaseOrder{
			ID:          uuid.New(),
			PONumber:    input.PONumber,
			VendorID:    vendorID,
			CreatedByID: createdByID,
			Status:      enums.PurchaseOrderStatusDraft,
			Subtotal:    totals.Subtotal,
			TaxRate:     input.TaxRate,
			TaxAmount:   totals.TaxAmount,
			GrandTotal:  totals.GrandTotal,
			Notes:       input.Notes,
		}
		for i, item := range input.Items {
			order.Items = append(order.Items, models.PurchaseOrderItem{
				ID:              uuid.New(),
				PurchaseOrderID: order.ID,
				Description:     item.Description,
				Quantity:        item.Quantity,
				UnitPrice:       item.UnitPrice,
				Total:           totals.LineTotals[i],
			})
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "idx_purchase_orders_po_number") {
				return pkgerrors.New(pkgerrors.CodeDuplicateKey, "po number already claimed").
					WithDetails(map[string]string{"po_number": input.PONumber})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}
		created = order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

// Get loads an order with its lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return loadOrder(ctx, s.repo, id)
}

// GetByNumber resolves an order by its business key.
func (s *Service) GetByNumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	order, err := s.repo.FindByPONumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return order, nil
}

// ListByVendor pages a vendor's orders. The second return value is the
// encoded cursor for the next page, empty on the last page.
func (s *Service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.PurchaseOrder, string, error) {
	orders, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return orders, nextCursor, nil
}

// Issue moves a draft order into the issued state. Every other starting
// state is a conflict.
func (s *Service) Issue(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time) (*models.PurchaseOrder, error) {
	return s.transition(ctx, id, baseUpdatedAt, func(order *models.PurchaseOrder) error {
		if order.Status != enums.PurchaseOrderStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be issued").
				WithDetails(map[string]string{"status": order.Status.String()})
		}
		order.Status = enums.PurchaseOrderStatusIssued
		return nil
	})
}

// Cancel voids an order. Once any invoice is linked the order is part of the
// billing record and can no longer be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time) (*models.PurchaseOrder, error) {
	var updated *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, order.UpdatedAt); err != nil {
			return err
		}
		if order.Status != enums.PurchaseOrderStatusDraft && order.Status != enums.PurchaseOrderStatusIssued {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]string{"status": order.Status.String()})
		}
		linked, err := repo.CountInvoicesForPO(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count linked invoices")
		}
		if linked > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has linked invoices and cannot be cancelled")
		}

		expected := order.UpdatedAt
		order.Status = enums.PurchaseOrderStatusCancelled
		rows, err := repo.Save(ctx, order, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save purchase order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time, apply func(*models.PurchaseOrder) error) (*models.PurchaseOrder, error) {
	var updated *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, order.UpdatedAt); err != nil {
			return err
		}
		expected := order.UpdatedAt
		if err := apply(order); err != nil {
			return err
		}
		rows, err := repo.Save(ctx, order, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save purchase order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// AddItem appends a line to a draft order and recomputes the header totals
// in the same transaction.
func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput, baseUpdatedAt time.Time) (*models.PurchaseOrder, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadDraftForEdit(ctx, repo, orderID, baseUpdatedAt)
		if err != nil {
			return err
		}

		line, err := integrity.ComputeTotals([]integrity.LineInput{{
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
			Total:     input.Total,
		}}, order.TaxRate)
		if err != nil {
			return err
		}

		item := &models.PurchaseOrderItem{
			ID:              uuid.New(),
			PurchaseOrderID: order.ID,
			Description:     input.Description,
			Quantity:        input.Quantity,
			UnitPrice:       input.UnitPrice,
			Total:           line.LineTotals[0],
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add order line")
		}

		updated, err = s.recomputeTotals(ctx, repo, order)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// UpdateItem rewrites one line of a draft order.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, input UpdateItemInput) (*models.PurchaseOrder, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadDraftForEdit(ctx, repo, orderID, input.BaseUpdatedAt)
		if err != nil {
			return err
		}

		var item *models.PurchaseOrderItem
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				item = &order.Items[i]
				break
			}
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
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
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order line")
		}

		updated, err = s.recomputeTotals(ctx, repo, order)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// RemoveItem drops a line from a draft order. The last line cannot be
// removed; an order with no lines is meaningless.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID, baseUpdatedAt time.Time) (*models.PurchaseOrder, error) {
	var updated *models.PurchaseOrder
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadDraftForEdit(ctx, repo, orderID, baseUpdatedAt)
		if err != nil {
			return err
		}

		found := false
		for _, item := range order.Items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
		}
		if len(order.Items) == 1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must keep at least one line")
		}

		if err := repo.DeleteItem(ctx, order.ID, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order line")
		}

		updated, err = s.recomputeTotals(ctx, repo, order)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// FindOrder is the lookup surface consumed by the billing write paths; tx
// may be nil for reads outside a transaction.
func (s *Service) FindOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.PurchaseOrder, error) {
	return loadOrder(ctx, s.repo.WithTx(tx), id)
}

// RecomputeStatus re-derives the invoice-driven status from current invoice
// coverage. Billing calls this inside its own transaction after every write
// that moves coverage.
func (s *Service) RecomputeStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	order, err := loadOrder(ctx, repo, id)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		return nil
	}

	invoiced, err := repo.SumInvoicedForPO(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum invoice coverage")
	}
	next := integrity.DerivePurchaseOrderStatus(order.Status, order.GrandTotal, invoiced)
	if next == order.Status {
		return nil
	}
	if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return nil
}

func (s *Service) requireActiveVendor(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) error {
	exists, err := s.vendors.VendorExists(ctx, tx, vendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vendor")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeDanglingReference, "vendor does not exist").
			WithDetails(map[string]string{"vendor_id": vendorID.String()})
	}
	active, err := s.vendors.VendorActive(ctx, tx, vendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vendor activation")
	}
	if !active {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "vendor is deactivated").
			WithDetails(map[string]string{"vendor_id": vendorID.String()})
	}
	return nil
}

func (s *Service) loadDraftForEdit(ctx context.Context, repo *Repository, orderID uuid.UUID, baseUpdatedAt time.Time) (*models.PurchaseOrder, error) {
	order, err := loadOrder(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := integrity.CheckBase(baseUpdatedAt, order.UpdatedAt); err != nil {
		return nil, err
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lines are editable only while the order is draft").
			WithDetails(map[string]string{"status": order.Status.String()})
	}
	return order, nil
}

// recomputeTotals reloads the lines and rewrites the header money block.
func (s *Service) recomputeTotals(ctx context.Context, repo *Repository, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	items, err := repo.FindItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order lines")
	}

	lines := make([]integrity.LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, integrity.LineInput{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	totals, err := integrity.ComputeTotals(lines, order.TaxRate)
	if err != nil {
		return nil, err
	}

	expected := order.UpdatedAt
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.TaxAmount
	order.GrandTotal = totals.GrandTotal
	order.Items = items
	rows, err := repo.Save(ctx, order, expected)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order totals")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
	}
	return order, nil
}

func loadOrder(ctx context.Context, repo *Repository, id uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return order, nil
}
