package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
)

// Repository exposes invoice persistence operations.
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

func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("References").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) FindByReferenceNumber(ctx context.Context, referenceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("References").
		First(&invoice, "reference_number = ?", referenceNumber).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Save writes the invoice header; items and references go through their own
// calls so a header write never silently rewrites children. The expected
// updated_at guards the UPDATE, so the write matches zero rows when another
// transaction committed first.
func (r *Repository) Save(ctx context.Context, invoice *models.Invoice, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(invoice).
		Where("updated_at = ?", expected).
		Select("*").
		Omit("Items", "References").
		Updates(invoice)
	return res.RowsAffected, res.Error
}

// Delete removes the header only when updated_at still matches expected.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Delete(&models.Invoice{}, "id = ? AND updated_at = ?", id, expected)
	return res.RowsAffected, res.Error
}

// ListByVendor pages a vendor's invoices by creation order using a cursor.
// The returned cursor points at the first row of the next page, nil on the
// last.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Invoice, *pagination.Cursor, error) {
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

	var invoices []models.Invoice
	if err := query.Preload("Items").Find(&invoices).Error; err != nil {
		return nil, nil, err
	}
	if len(invoices) > limit {
		next := invoices[limit]
		return invoices[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return invoices, nil, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.InvoiceItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) SaveItem(ctx context.Context, item *models.InvoiceItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, invoiceID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.InvoiceItem{}, "id = ? AND invoice_id = ?", itemID, invoiceID).Error
}

func (r *Repository) FindItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) DeleteItemsByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.InvoiceItem{}, "invoice_id = ?", invoiceID).Error
}

func (r *Repository) CreateReference(ctx context.Context, reference *models.InvoiceReference) error {
	return r.db.WithContext(ctx).Create(reference).Error
}

func (r *Repository) FindReference(ctx context.Context, invoiceID, referenceID uuid.UUID) (*models.InvoiceReference, error) {
	var reference models.InvoiceReference
	err := r.db.WithContext(ctx).
		First(&reference, "id = ? AND invoice_id = ?", referenceID, invoiceID).Error
	if err != nil {
		return nil, err
	}
	return &reference, nil
}

// SaveReference updates the window only when updated_at still matches
// expected.
func (r *Repository) SaveReference(ctx context.Context, reference *models.InvoiceReference, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(reference).
		Where("updated_at = ?", expected).
		Select("*").
		Updates(reference)
	return res.RowsAffected, res.Error
}

func (r *Repository) ListReferences(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceReference, error) {
	var references []models.InvoiceReference
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("period_from ASC, id ASC").
		Find(&references).Error
	if err != nil {
		return nil, err
	}
	return references, nil
}

func (r *Repository) DeleteReferencesByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.InvoiceReference{}, "invoice_id = ?", invoiceID).Error
}

// CountFreightLinks reports how many freight requests still point at the
// invoice. Used to enforce the restrict delete policy.
func (r *Repository) CountFreightLinks(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LRRequest{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count, err
}

// InvoiceExists is the referential-check surface consumed by the freight
// write paths; tx may be nil for reads outside a transaction.
func (r *Repository) InvoiceExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
