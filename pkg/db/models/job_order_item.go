package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// JobOrderItem is the immutable price snapshot of one order line. Labor and
// packaging stay nil when no active rule existed at resolution time, which is
// distinct from a rule priced at zero.
type JobOrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobOrderID      uuid.UUID             `gorm:"column:job_order_id;type:uuid;not null"`
	CatalogItemID   uuid.UUID             `gorm:"column:catalog_item_id;type:uuid;not null"`
	CatalogItemName string                `gorm:"column:catalog_item_name;not null"`
	CatalogItemType enums.CatalogItemType `gorm:"column:catalog_item_type;type:text;not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	BasePrice       decimal.Decimal       `gorm:"column:base_price;type:numeric(12,2);not null"`
	LaborPrice      *decimal.Decimal      `gorm:"column:labor_price;type:numeric(12,2)"`
	PackagingPrice  *decimal.Decimal      `gorm:"column:packaging_price;type:numeric(12,2)"`
	LineTotal       decimal.Decimal       `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
