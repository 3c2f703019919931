package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/types"
)

// Repository exposes document persistence operations.
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

func (r *Repository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByLinked resolves the document attached to the referenced entity.
func (r *Repository) FindByLinked(ctx context.Context, ref types.LinkedRef) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		First(&doc, "linked_kind = ? AND linked_id = ?", ref.Kind, ref.ID).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) Save(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id).Error
}

// DeleteByLinked removes the attachment for the referenced entity, if any.
func (r *Repository) DeleteByLinked(ctx context.Context, ref types.LinkedRef) error {
	return r.db.WithContext(ctx).
		Delete(&models.Document{}, "linked_kind = ? AND linked_id = ?", ref.Kind, ref.ID).Error
}
