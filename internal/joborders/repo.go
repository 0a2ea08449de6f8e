package joborders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// ListFilter narrows a job order listing.
type ListFilter struct {
	BranchID   uuid.UUID
	CustomerID *uuid.UUID
	Status     *string
}

// Repository manages persistence for job orders and their item snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.JobOrder) error
	Update(ctx context.Context, order *models.JobOrder) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.JobOrder, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.JobOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a job order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the order and its item snapshots in one insert via the
// association.
func (r *repository) Create(ctx context.Context, order *models.JobOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Update(ctx context.Context, order *models.JobOrder) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("job_order_id = ?", orderID).Delete(&models.JobOrderItem{}).Error
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.JobOrder{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.JobOrder, error) {
	var order models.JobOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.JobOrder, error) {
	query := r.db.WithContext(ctx).
		Model(&models.JobOrder{}).
		Where("branch_id = ?", filter.BranchID)

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
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

	var orders []models.JobOrder
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
