package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// ListFilter narrows a catalog listing.
type ListFilter struct {
	// BranchID limits the listing to one branch's items plus global items.
	BranchID *uuid.UUID
	// GlobalOnly returns only global items.
	GlobalOnly bool
	// IncludeInactive keeps inactive items in the listing.
	IncludeInactive bool
}

// Repository manages persistence for catalog items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.CatalogItem) error
	Update(ctx context.Context, item *models.CatalogItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.CatalogItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CatalogItem{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.CatalogItem, error) {
	query := r.db.WithContext(ctx).Model(&models.CatalogItem{})

	switch {
	case filter.GlobalOnly:
		query = query.Where("is_global")
	case filter.BranchID != nil:
		query = query.Where("is_global OR branch_id = ?", *filter.BranchID)
	}
	if !filter.IncludeInactive {
		query = query.Where("status = ?", enums.ActivationStatusActive.String())
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.CatalogItem
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
