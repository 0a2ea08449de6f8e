package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// Repository manages persistence for pricing rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *models.PricingRule) error
	Update(ctx context.Context, rule *models.PricingRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PricingRule, error)
	ListActive(ctx context.Context, catalogItemID, branchID uuid.UUID) ([]models.PricingRule, error)
	FindActiveConflict(ctx context.Context, catalogItemID, branchID uuid.UUID, pricingType enums.PricingType, excludeRuleID *uuid.UUID) (*models.PricingRule, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.PricingRule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a pricing rule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rule *models.PricingRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) Update(ctx context.Context, rule *models.PricingRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PricingRule{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListActive returns the active rules for one (item, branch) pair ordered
// newest first, which the resolver relies on for its duplicate tiebreak.
func (r *repository) ListActive(ctx context.Context, catalogItemID, branchID uuid.UUID) ([]models.PricingRule, error) {
	var rules []models.PricingRule
	if err := r.db.WithContext(ctx).
		Where("catalog_item_id = ? AND branch_id = ? AND status = ?",
			catalogItemID, branchID, enums.ActivationStatusActive.String()).
		Order("created_at DESC, id DESC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) FindActiveConflict(ctx context.Context, catalogItemID, branchID uuid.UUID, pricingType enums.PricingType, excludeRuleID *uuid.UUID) (*models.PricingRule, error) {
	query := r.db.WithContext(ctx).
		Where("catalog_item_id = ? AND branch_id = ? AND pricing_type = ? AND status = ?",
			catalogItemID, branchID, pricingType.String(), enums.ActivationStatusActive.String())
	if excludeRuleID != nil {
		query = query.Where("id <> ?", *excludeRuleID)
	}

	var rule models.PricingRule
	if err := query.First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.PricingRule, error) {
	query := r.db.WithContext(ctx).Where("branch_id = ?", branchID)

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

	var rules []models.PricingRule
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
