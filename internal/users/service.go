package users

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

// vendorChecker is the slice of the vendors repository this package needs:
// existence checks inside the caller's transaction.
type vendorChecker interface {
	VendorExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

// Service owns the user identity profile: role, vendor link, and ban state.
type Service struct {
	repo    *Repository
	vendors vendorChecker
	tx      txRunner
}

func NewService(repo *Repository, vendors vendorChecker, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, vendors: vendors, tx: tx}, nil
}

// Create inserts a user. The email is the natural key; the database index
// settles races the way application-level lookups cannot.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	role := enums.UserRoleUser
	if input.Role != "" {
		parsed, err := enums.ParseUserRole(input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
		}
		role = parsed
	}

	user := &models.User{
		ID:    uuid.New(),
		Email: input.Email,
		Name:  input.Name,
		Role:  role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// List pages users by creation order. The second return value is the encoded
// cursor for the next page, empty on the last page.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.User, string, error) {
	users, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return users, nextCursor, nil
}

// AssignVendor links the user to a vendor. The vendor row is checked inside
// the same transaction, so the link can never dangle at commit time.
func (s *Service) AssignVendor(ctx context.Context, id uuid.UUID, input AssignVendorInput) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	vendorID, err := uuid.Parse(input.VendorID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id is not a uuid")
	}

	var updated *models.User
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(input.BaseUpdatedAt, user.UpdatedAt); err != nil {
			return err
		}

		exists, err := s.vendors.VendorExists(ctx, tx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vendor")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeDanglingReference, "vendor does not exist").
				WithDetails(map[string]string{"vendor_id": vendorID.String()})
		}

		expected := user.UpdatedAt
		user.VendorID = &vendorID
		rows, err := repo.Save(ctx, user, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// ClearVendor drops the vendor link.
func (s *Service) ClearVendor(ctx context.Context, id uuid.UUID, baseUpdatedAt time.Time) (*models.User, error) {
	var updated *models.User
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(baseUpdatedAt, user.UpdatedAt); err != nil {
			return err
		}

		expected := user.UpdatedAt
		user.VendorID = nil
		rows, err := repo.Save(ctx, user, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// SetBanned flips the ban flag. Reason and expiry ride along on ban and are
// wiped on unban.
func (s *Service) SetBanned(ctx context.Context, id uuid.UUID, input BanInput) (*models.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var updated *models.User
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := loadUser(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := integrity.CheckBase(input.BaseUpdatedAt, user.UpdatedAt); err != nil {
			return err
		}

		expected := user.UpdatedAt
		user.Banned = input.Banned
		if input.Banned {
			user.BanReason = input.Reason
			user.BanExpiresAt = input.ExpiresAt
		} else {
			user.BanReason = nil
			user.BanExpiresAt = nil
		}
		rows, err := repo.Save(ctx, user, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStaleWrite, "row changed since last read")
		}
		updated = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func loadUser(ctx context.Context, repo *Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
