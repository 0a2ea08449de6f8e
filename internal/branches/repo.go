package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/db/models"
)

// Repository manages persistence for branches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, branch *models.Branch) error
	Update(ctx context.Context, branch *models.Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	FindByCode(ctx context.Context, code string) (*models.Branch, error)
	List(ctx context.Context) ([]models.Branch, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a branch repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *repository) Update(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) List(ctx context.Context) ([]models.Branch, error) {
	var all []models.Branch
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}
