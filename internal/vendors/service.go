package vendors

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

// Service owns the vendor aggregate: the profile, its activation state, and
// the single postal address attached to it.
type Service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds a vendor service with the required dependencies.
func NewService(repo *Repository, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, tx: tx}, nil
}

// Create inserts a vendor with the standard defaults: profile not yet
// completed, active.
func (s *Service) Create(ctx context.Context, input CreateVendorInput) (*models.Vendor, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	vendor := &models.Vendor{
		Name:             input.Name,
		GSTIN:            input.GSTIN,
		PAN:              input.PAN,
		PaymentTerms:     input.PaymentTerms,
		ContactEmail:     input.ContactEmail,
		ContactPhone:     input.ContactPhone,
		ProfileCompleted: false,
		IsActive:         true,
	}
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return vendor, nil
}

// Get loads a vendor with its address.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

// List pages vendors by creation order. The second return value is the
// encoded cursor for the next page, empty on the last page.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.Vendor, string, error) {
	vendors, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return vendors, nextCursor, nil
}

// Update applies profile edits under the optimistic-concurrency check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateVendorInput) (*models.Vendor, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.Vendor
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendor, err := loadVendor(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(input.BaseUpdatedAt, vendor.UpdatedAt); err != nil {
			return err
		}

		if input.Name != nil {
			vendor.Name = *input.Name
		}
		if input.GSTIN != nil {
			vendor.GSTIN = input.GSTIN
		}
		if input.PAN != nil {
			vendor.PAN = input.PAN
		}
		if input.PaymentTerms != nil {
			vendor.PaymentTerms = input.PaymentTerms
		}
		if input.ContactEmail != nil {
			vendor.ContactEmail = input.ContactEmail
		}
		if input.ContactPhone != nil {
			vendor.ContactPhone = input.ContactPhone
		}
		if input.ProfileCompleted != nil {
			vendor.ProfileCompleted = *input.ProfileCompleted
		}

		rows, err := repo.Save(ctx, vendor, vendor.UpdatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save vendor")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate soft-deletes the vendor: history stays, new purchase orders and
// freight requests are blocked.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendor, err := loadVendor(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, vendor.UpdatedAt); err != nil {
			return err
		}
		if !vendor.IsActive {
			return nil
		}
		expected := vendor.UpdatedAt
		vendor.IsActive = false
		rows, err := repo.Save(ctx, vendor, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate vendor")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		return nil
	})
}

// PutAddress attaches or replaces the vendor's single postal address. The
// relation is one-to-one in practice, so an existing row is updated in place
// rather than a second row inserted.
func (s *Service) PutAddress(ctx context.Context, vendorID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var result *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadVendor(ctx, repo, vendorID); err != nil {
			return err
		}

		country := input.Country
		if country == "" {
			country = "IN"
		}

		existing, err := repo.FindAddressByVendor(ctx, vendorID)
		switch {
		case err == nil:
			existing.Line1 = input.Line1
			existing.Line2 = input.Line2
			existing.City = input.City
			existing.State = input.State
			existing.PostalCode = input.PostalCode
			existing.Country = country
			if err := repo.SaveAddress(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace address")
			}
			result = existing
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			address := &models.Address{
				ID:         uuid.New(),
				VendorID:   vendorID,
				Line1:      input.Line1,
				Line2:      input.Line2,
				City:       input.City,
				State:      input.State,
				PostalCode: input.PostalCode,
				Country:    country,
			}
			if err := repo.CreateAddress(ctx, address); err != nil {
				if db.IsUniqueViolation(err, "idx_addresses_vendor_id") {
					return pkgerrors.New(pkgerrors.CodeDuplicateKey, "vendor already has an address")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
			}
			result = address
			return nil

		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAddress loads the vendor's address.
func (s *Service) GetAddress(ctx context.Context, vendorID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindAddressByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}

// Delete removes a vendor under the restrict policy: the write is rejected
// while purchase orders, invoices, or freight requests still reference the
// vendor. The owned address cascades; user back-references are nulled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadVendor(ctx, repo, id); err != nil {
			return err
		}

		counts, err := repo.CountDependents(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count vendor dependents")
		}
		if counts.Any() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "vendor still referenced by purchase orders, invoices, or freight requests").
				WithDetails(map[string]int64{
					"purchase_orders": counts.PurchaseOrders,
					"invoices":        counts.Invoices,
					"lr_requests":     counts.LRRequests,
				})
		}

		if err := repo.ClearUserLinks(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink users")
		}
		if err := repo.DeleteAddressByVendor(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor")
		}
		return nil
	})
}

func loadVendor(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}
