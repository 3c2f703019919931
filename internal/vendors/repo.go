package vendors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
)

// Repository exposes vendor and address persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vendors repo bound to the provided GORM DB.
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

func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Preload("Address").
		First(&vendor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// Save updates the row only when updated_at still matches expected; the
// guard makes concurrent writers lose with zero matched rows.
func (r *Repository) Save(ctx context.Context, vendor *models.Vendor, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(vendor).
		Where("updated_at = ?", expected).
		Select("*").
		Omit("Address").
		Updates(vendor)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Vendor{}, "id = ?", id).Error
}

// List pages vendors by creation order using a cursor. The returned cursor
// points at the first row of the next page, nil when this page is the last.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Vendor, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
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

	var vendors []models.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, nil, err
	}
	if len(vendors) > limit {
		next := vendors[limit]
		return vendors[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return vendors, nil, nil
}

func (r *Repository) FindAddressByVendor(ctx context.Context, vendorID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).First(&address, "vendor_id = ?", vendorID).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CreateAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) SaveAddress(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *Repository) DeleteAddressByVendor(ctx context.Context, vendorID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Address{}, "vendor_id = ?", vendorID).Error
}

// DependentCounts reports how many rows still reference the vendor from the
// purchasing, billing, and freight tables. Used to enforce the restrict
// delete policy.
type DependentCounts struct {
	PurchaseOrders int64
	Invoices       int64
	LRRequests     int64
}

func (d DependentCounts) Any() bool {
	return d.PurchaseOrders > 0 || d.Invoices > 0 || d.LRRequests > 0
}

func (r *Repository) CountDependents(ctx context.Context, vendorID uuid.UUID) (DependentCounts, error) {
	var counts DependentCounts
	conn := r.db.WithContext(ctx)

	if err := conn.Model(&models.PurchaseOrder{}).
		Where("vendor_id = ?", vendorID).
		Count(&counts.PurchaseOrders).Error; err != nil {
		return counts, err
	}
	if err := conn.Model(&models.Invoice{}).
		Where("vendor_id = ?", vendorID).
		Count(&counts.Invoices).Error; err != nil {
		return counts, err
	}
	if err := conn.Model(&models.LRRequest{}).
		Where("transporter_id = ?", vendorID).
		Count(&counts.LRRequests).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// ClearUserLinks nulls the vendor back-reference on users when the vendor
// goes away; the association is optional on the user side.
func (r *Repository) ClearUserLinks(ctx context.Context, vendorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("vendor_id = ?", vendorID).
		UpdateColumn("vendor_id", nil).Error
}

// VendorExists is the referential-check surface consumed by the other write
// paths; tx may be nil for reads outside a transaction.
func (r *Repository) VendorExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// VendorActive reports whether the vendor exists and has not been
// soft-deleted.
func (r *Repository) VendorActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count > 0, err
}
