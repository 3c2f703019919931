package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/enums"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/types"
)

// Document is a generic attachment keyed by a weak reference. The linked pair
// is unique but carries no foreign key: the target may have been deleted and
// the row must survive that.
type Document struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LinkedKind  enums.EntityKind `gorm:"column:linked_kind;type:text;not null;uniqueIndex:idx_documents_linked"`
	LinkedID    uuid.UUID        `gorm:"column:linked_id;type:uuid;not null;uniqueIndex:idx_documents_linked"`
	Label       string           `gorm:"column:label;not null"`
	URL         string           `gorm:"column:url;not null"`
	Description *string          `gorm:"column:description"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Linked returns the tagged weak reference for the row.
func (d Document) Linked() types.LinkedRef {
	return types.LinkedRef{Kind: d.LinkedKind, ID: d.LinkedID}
}
