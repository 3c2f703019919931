package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/types"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/validate"
)

// AttachInput carries the attachment payload. The linked reference arrives
// in its stored "kind:id" form and is type-checked, not existence-checked.
type AttachInput struct {
	LinkedRef   string  `json:"linked_ref" validate:"required"`
	Label       string  `json:"label" validate:"required"`
	URL         string  `json:"url" validate:"required,url"`
	Description *string `json:"description"`
}

// Service manages generic attachments. References are weak: the target entity
// is never consulted, and a document may outlive what it points at.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	return &Service{repo: repo}, nil
}

// Attach stores a document against the referenced entity. Each entity holds
// at most one attachment; the composite unique index settles races.
func (s *Service) Attach(ctx context.Context, input AttachInput) (*models.Document, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	ref, err := types.ParseLinkedRef(input.LinkedRef)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if err := ref.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	doc := &models.Document{
		ID:          uuid.New(),
		LinkedKind:  ref.Kind,
		LinkedID:    ref.ID,
		Label:       input.Label,
		URL:         input.URL,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if db.IsUniqueViolation(err, "idx_documents_linked") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, "entity already has an attachment").
				WithDetails(map[string]string{"linked_ref": ref.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach document")
	}
	return doc, nil
}

// Get loads a document by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return doc, nil
}

// FindByLinked resolves the attachment for a referenced entity.
func (s *Service) FindByLinked(ctx context.Context, ref types.LinkedRef) (*models.Document, error) {
	if err := ref.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	doc, err := s.repo.FindByLinked(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return doc, nil
}

// Remove deletes a document by id.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	return nil
}
