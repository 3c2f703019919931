package freight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type vendorGate interface {
	VendorExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	VendorActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type invoiceChecker interface {
	InvoiceExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

// Service owns the freight side: LR requests booked with transporter vendors
// and the standalone lorry receipt records.
type Service struct {
	repo     *Repository
	vendors  vendorGate
	invoices invoiceChecker
	tx       txRunner
}

func NewService(repo *Repository, vendors vendorGate, invoices invoiceChecker, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("freight repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor gate required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, vendors: vendors, invoices: invoices, tx: tx}, nil
}

// CreateRequest books a movement. The transporter must be an existing active
// vendor; the invoice link starts empty regardless of caller input.
func (s *Service) CreateRequest(ctx context.Context, input CreateLRRequestInput) (*models.LRRequest, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	transporterID, err := uuid.Parse(input.TransporterID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transporter_id is not a uuid")
	}
	if input.PriceOffered.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price offered must not be negative")
	}
	extraCost := decimal.Zero
	if input.ExtraCost != nil {
		if input.ExtraCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "extra cost must not be negative")
		}
		extraCost = *input.ExtraCost
	}

	var created *models.LRRequest
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.vendors.VendorExists(ctx, tx, transporterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transporter")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "transporter vendor does not exist").
				WithDetails(map[string]string{"transporter_id": transporterID.String()})
		}
		active, err := s.vendors.VendorActive(ctx, tx, transporterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transporter activation")
		}
		if !active {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transporter vendor is deactivated").
				WithDetails(map[string]string{"transporter_id": transporterID.String()})
		}

		request := &models.LRRequest{
			ID:            uuid.New(),
			LRNumber:      input.LRNumber,
			TransporterID: transporterID,
			FromLocation:  input.FromLocation,
			ToLocation:    input.ToLocation,
			PriceOffered:  input.PriceOffered,
			ExtraCost:     extraCost,
			Notes:         input.Notes,
		}
		if err := s.repo.WithTx(tx).CreateRequest(ctx, request); err != nil {
			if db.IsUniqueViolation(err, "idx_lr_requests_lr_number") {
				return pkgerrors.New(pkgerrors.CodeDuplicateKey, "lr number already claimed").
					WithDetails(map[string]string{"lr_number": input.LRNumber})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create freight request")
		}
		created = request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

// GetRequest loads a freight request by id.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*models.LRRequest, error) {
	return loadRequest(ctx, s.repo, id)
}

// GetRequestByLRNumber resolves a request by its business key.
func (s *Service) GetRequestByLRNumber(ctx context.Context, lrNumber string) (*models.LRRequest, error) {
	request, err := s.repo.FindRequestByLRNumber(ctx, lrNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "freight request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load freight request")
	}
	return request, nil
}

// ListRequestsByTransporter pages a transporter's requests. The second
// return value is the encoded cursor for the next page, empty on the last.
func (s *Service) ListRequestsByTransporter(ctx context.Context, transporterID uuid.UUID, params pagination.Params) ([]models.LRRequest, string, error) {
	requests, next, err := s.repo.ListRequestsByTransporter(ctx, transporterID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list freight requests")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return requests, nextCursor, nil
}

// AssignInvoice links the request to an invoice. The invoice must exist, and
// invoice_id plus is_invoiced land in one statement.
func (s *Service) AssignInvoice(ctx context.Context, requestID, invoiceID uuid.UUID, baseUpdatedAt time.Time) (*models.LRRequest, error) {
	var updated *models.LRRequest
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, request.UpdatedAt); err != nil {
			return err
		}

		exists, err := s.invoices.InvoiceExists(ctx, tx, invoiceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invoice")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "invoice does not exist").
				WithDetails(map[string]string{"invoice_id": invoiceID.String()})
		}

		rows, err := repo.SetInvoiceLink(ctx, request.ID, &invoiceID, request.UpdatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link invoice")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated, err = loadRequest(ctx, repo, requestID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// ClearInvoice drops the invoice link; both fields reset together.
func (s *Service) ClearInvoice(ctx context.Context, requestID uuid.UUID, baseUpdatedAt time.Time) (*models.LRRequest, error) {
	var updated *models.LRRequest
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, request.UpdatedAt); err != nil {
			return err
		}

		rows, err := repo.SetInvoiceLink(ctx, request.ID, nil, request.UpdatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink invoice")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated, err = loadRequest(ctx, repo, requestID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// SettlePricing records the final negotiated price and any extra cost.
func (s *Service) SettlePricing(ctx context.Context, requestID uuid.UUID, input SettlePricingInput) (*models.LRRequest, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.PriceSettled.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price settled must not be negative")
	}

	var updated *models.LRRequest
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(input.BaseUpdatedAt, request.UpdatedAt); err != nil {
			return err
		}

		expected := request.UpdatedAt
		settled := input.PriceSettled
		request.PriceSettled = &settled
		if input.ExtraCost != nil {
			if input.ExtraCost.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "extra cost must not be negative")
			}
			request.ExtraCost = *input.ExtraCost
		}
		rows, err := repo.SaveRequest(ctx, request, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save freight request")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// CreateReceipt records a standalone lorry receipt.
func (s *Service) CreateReceipt(ctx context.Context, input CreateLorryReceiptInput) (*models.LorryReceipt, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	receipt := &models.LorryReceipt{
		ID:              uuid.New(),
		LRNo:            input.LRNo,
		LRDate:          input.LRDate,
		City:            input.City,
		TransporterName: input.TransporterName,
		Warehouse:       input.Warehouse,
		VehicleType:     input.VehicleType,
		VehicleNumber:   input.VehicleNumber,
	}
	if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
		if db.IsUniqueViolation(err, "idx_lorry_receipts_lr_no") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, "lr no already claimed").
				WithDetails(map[string]string{"lr_no": input.LRNo})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lorry receipt")
	}
	return receipt, nil
}

// GetReceipt loads a receipt by id.
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*models.LorryReceipt, error) {
	receipt, err := s.repo.FindReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lorry receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lorry receipt")
	}
	return receipt, nil
}

// ListReceipts pages receipts by creation order. The second return value is
// the encoded cursor for the next page, empty on the last.
func (s *Service) ListReceipts(ctx context.Context, params pagination.Params) ([]models.LorryReceipt, string, error) {
	receipts, next, err := s.repo.ListReceipts(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lorry receipts")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return receipts, nextCursor, nil
}

func loadRequest(ctx context.Context, repo *Repository, id uuid.UUID) (*models.LRRequest, error) {
	request, err := repo.FindRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "freight request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load freight request")
	}
	return request, nil
}
