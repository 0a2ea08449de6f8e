package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// PricingRule layers a branch-specific labor or packaging price on top of a
// catalog item's base price. At most one rule per (catalog item, branch,
// pricing type) may be active; the partial unique index
// ux_pricing_rules_active is the authoritative backstop for that invariant.
type PricingRule struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CatalogItemID uuid.UUID              `gorm:"column:catalog_item_id;type:uuid;not null"`
	BranchID      uuid.UUID              `gorm:"column:branch_id;type:uuid;not null"`
	PricingType   enums.PricingType      `gorm:"column:pricing_type;type:text;not null"`
	Price         decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	Status        enums.ActivationStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Description   *string                `gorm:"column:description"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
