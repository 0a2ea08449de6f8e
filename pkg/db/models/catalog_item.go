package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// CatalogItem is a sellable service, product, or package. Global items have a
// nil BranchID and are visible at every branch; branch items belong to exactly
// one branch. IsGlobal and BranchID must always agree.
type CatalogItem struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string                 `gorm:"column:name;not null"`
	Type      enums.CatalogItemType  `gorm:"column:type;type:text;not null"`
	BasePrice decimal.Decimal        `gorm:"column:base_price;type:numeric(12,2);not null"`
	Status    enums.ActivationStatus `gorm:"column:status;type:text;not null;default:'active'"`
	BranchID  *uuid.UUID             `gorm:"column:branch_id;type:uuid"`
	IsGlobal  bool                   `gorm:"column:is_global;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
