package freight

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
)

// Repository exposes freight request and lorry receipt persistence.
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

func (r *Repository) CreateRequest(ctx context.Context, request *models.LRRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) FindRequestByID(ctx context.Context, id uuid.UUID) (*models.LRRequest, error) {
	var request models.LRRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) FindRequestByLRNumber(ctx context.Context, lrNumber string) (*models.LRRequest, error) {
	var request models.LRRequest
	if err := r.db.WithContext(ctx).First(&request, "lr_number = ?", lrNumber).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// SaveRequest updates the row only when updated_at still matches expected;
// the guard makes concurrent writers lose with zero matched rows.
func (r *Repository) SaveRequest(ctx context.Context, request *models.LRRequest, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(request).
		Where("updated_at = ?", expected).
		Select("*").
		Updates(request)
	return res.RowsAffected, res.Error
}

// SetInvoiceLink writes invoice_id and is_invoiced in a single statement so
// the pair can never drift apart. The expected updated_at guards the write
// like SaveRequest.
func (r *Repository) SetInvoiceLink(ctx context.Context, requestID uuid.UUID, invoiceID *uuid.UUID, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LRRequest{}).
		Where("id = ? AND updated_at = ?", requestID, expected).
		Updates(map[string]any{
			"invoice_id":  invoiceID,
			"is_invoiced": invoiceID != nil,
		})
	return res.RowsAffected, res.Error
}

// ListRequestsByTransporter pages a transporter's requests by creation
// order. The returned cursor points at the first row of the next page, nil
// on the last.
func (r *Repository) ListRequestsByTransporter(ctx context.Context, transporterID uuid.UUID, params pagination.Params) ([]models.LRRequest, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("transporter_id = ?", transporterID).
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

	var requests []models.LRRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, nil, err
	}
	if len(requests) > limit {
		next := requests[limit]
		return requests[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return requests, nil, nil
}

func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.LorryReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *Repository) FindReceiptByID(ctx context.Context, id uuid.UUID) (*models.LorryReceipt, error) {
	var receipt models.LorryReceipt
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceipts pages receipts by creation order. The returned cursor points
// at the first row of the next page, nil on the last.
func (r *Repository) ListReceipts(ctx context.Context, params pagination.Params) ([]models.LorryReceipt, *pagination.Cursor, error) {
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

	var receipts []models.LorryReceipt
	if err := query.Find(&receipts).Error; err != nil {
		return nil, nil, err
	}
	if len(receipts) > limit {
		next := receipts[limit]
		return receipts[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return receipts, nil, nil
}
