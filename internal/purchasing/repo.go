package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
)

// Repository exposes purchase order persistence operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindByPONumber(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "po_number = ?", poNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save writes the order header; items are managed through their own calls so
// a header write never silently rewrites lines. The expected updated_at
// guards the UPDATE, so the write matches zero rows when another transaction
// committed first.
func (r *Repository) Save(ctx context.Context, order *models.PurchaseOrder, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(order).
		Where("updated_at = ?", expected).
		Select("*").
		Omit("Items").
		Updates(order)
	return res.RowsAffected, res.Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListByVendor pages a vendor's orders by creation order using a cursor. The
// returned cursor points at the first row of the next page, nil on the last.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.PurchaseOrder, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.PurchaseOrder
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	if len(orders) > limit {
		next := orders[limit]
		return orders[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return orders, nil, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) SaveItem(ctx context.Context, item *models.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.PurchaseOrderItem{}, "id = ? AND purchase_order_id = ?", itemID, orderID).Error
}

func (r *Repository) FindItems(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseOrderItem, error) {
	var items []models.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CountInvoicesForPO reports how many invoices are linked to the order.
func (r *Repository) CountInvoicesForPO(ctx context.Context, poID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("po_id = ?", poID).
		Count(&count).Error
	return count, err
}

// SumInvoicedForPO totals the grand totals of every invoice linked to the
// order. Coverage drives the derived status past issued.
func (r *Repository) SumInvoicedForPO(ctx context.Context, poID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("po_id = ?", poID).
		Select("COALESCE(SUM(grand_total), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
