package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/db/models"
	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/pagination"
)

// Repository exposes user persistence operations.
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

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Save updates the row only when updated_at still matches expected; the
// guard makes concurrent writers lose with zero matched rows.
func (r *Repository) Save(ctx context.Context, user *models.User, expected time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(user).
		Where("updated_at = ?", expected).
		Select("*").
		Updates(user)
	return res.RowsAffected, res.Error
}

// List pages users by creation order using a cursor. The returned cursor
// points at the first row of the next page, nil when this page is the last.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.User, *pagination.Cursor, error) {
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

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, nil, err
	}
	if len(users) > limit {
		next := users[limit]
		return users[:limit], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return users, nil, nil
}

// UserExists is the referential-check surface consumed by other write paths;
// tx may be nil for reads outside a transaction.
func (r *Repository) UserExists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
