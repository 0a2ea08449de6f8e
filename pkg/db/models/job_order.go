package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// JobOrder bundles catalog items for a customer's vehicle at one branch.
// TotalAmount is fixed at creation and never recomputed; only Notes and the
// lifecycle columns change afterwards.
type JobOrder struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID    uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	VehicleID     uuid.UUID            `gorm:"column:vehicle_id;type:uuid;not null"`
	BranchID      uuid.UUID            `gorm:"column:branch_id;type:uuid;not null"`
	Status        enums.JobOrderStatus `gorm:"column:status;type:text;not null;default:'created'"`
	TotalAmount   decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes         *string              `gorm:"column:notes"`
	ApprovedAt    *time.Time           `gorm:"column:approved_at"`
	ApprovedBy    *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovalNotes *string              `gorm:"column:approval_notes"`
	Items         []JobOrderItem       `gorm:"foreignKey:JobOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
