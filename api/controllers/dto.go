package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/internal/pricing"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type branchDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBranchDTO(b *models.Branch) branchDTO {
	return branchDTO{
		ID:        b.ID,
		Name:      b.Name,
		Code:      b.Code,
		Address:   b.Address,
		Phone:     b.Phone,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type customerDTO struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerDTO(c *models.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		BranchID:  c.BranchID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type customerPage struct {
	Customers  []customerDTO `json:"customers"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type vehicleDTO struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	PlateNumber string    `json:"plate_number"`
	Make        *string   `json:"make,omitempty"`
	Model       *string   `json:"model,omitempty"`
	Year        *int      `json:"year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toVehicleDTO(v *models.Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:          v.ID,
		CustomerID:  v.CustomerID,
		PlateNumber: v.PlateNumber,
		Make:        v.Make,
		Model:       v.Model,
		Year:        v.Year,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type catalogItemDTO struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Type      enums.CatalogItemType  `json:"type"`
	BasePrice decimal.Decimal        `json:"base_price"`
	Status    enums.ActivationStatus `json:"status"`
	BranchID  *uuid.UUID             `json:"branch_id,omitempty"`
	IsGlobal  bool                   `json:"is_global"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toCatalogItemDTO(item *models.CatalogItem) catalogItemDTO {
	return catalogItemDTO{
		ID:        item.ID,
		Name:      item.Name,
		Type:      item.Type,
		BasePrice: item.BasePrice,
		Status:    item.Status,
		BranchID:  item.BranchID,
		IsGlobal:  item.IsGlobal,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

type catalogItemPage struct {
	Items      []catalogItemDTO `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type pricingRuleDTO struct {
	ID            uuid.UUID              `json:"id"`
	CatalogItemID uuid.UUID              `json:"catalog_item_id"`
	BranchID      uuid.UUID              `json:"branch_id"`
	PricingType   enums.PricingType      `json:"pricing_type"`
	Price         decimal.Decimal        `json:"price"`
	Status        enums.ActivationStatus `json:"status"`
	Description   *string                `json:"description,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toPricingRuleDTO(rule *models.PricingRule) pricingRuleDTO {
	return pricingRuleDTO{
		ID:            rule.ID,
		CatalogItemID: rule.CatalogItemID,
		BranchID:      rule.BranchID,
		PricingType:   rule.PricingType,
		Price:         rule.Price,
		Status:        rule.Status,
		Description:   rule.Description,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
}

type pricingRulePage struct {
	Rules      []pricingRuleDTO `json:"rules"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type resolutionDTO struct {
	CatalogItemID   uuid.UUID        `json:"catalog_item_id"`
	CatalogItemName string           `json:"catalog_item_name"`
	BasePrice       decimal.Decimal  `json:"base_price"`
	LaborPrice      *decimal.Decimal `json:"labor_price"`
	PackagingPrice  *decimal.Decimal `json:"packaging_price"`
	Quantity        int              `json:"quantity"`
	LineTotal       decimal.Decimal  `json:"line_total"`
}

func toResolutionDTO(result *pricing.ResolveResult) resolutionDTO {
	res := result.Resolution
	return resolutionDTO{
		CatalogItemID:   res.Item.ID,
		CatalogItemName: res.Item.Name,
		BasePrice:       res.BasePrice,
		LaborPrice:      res.LaborPrice,
		PackagingPrice:  res.PackagingPrice,
		Quantity:        result.Quantity,
		LineTotal:       result.LineTotal,
	}
}

type jobOrderItemDTO struct {
	ID              uuid.UUID             `json:"id"`
	CatalogItemID   uuid.UUID             `json:"catalog_item_id"`
	CatalogItemName string                `json:"catalog_item_name"`
	CatalogItemType enums.CatalogItemType `json:"catalog_item_type"`
	Quantity        int                   `json:"quantity"`
	BasePrice       decimal.Decimal       `json:"base_price"`
	LaborPrice      *decimal.Decimal      `json:"labor_price"`
	PackagingPrice  *decimal.Decimal      `json:"packaging_price"`
	LineTotal       decimal.Decimal       `json:"line_total"`
}

type jobOrderDTO struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"order_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	VehicleID     uuid.UUID            `json:"vehicle_id"`
	BranchID      uuid.UUID            `json:"branch_id"`
	Status        enums.JobOrderStatus `json:"status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	Notes         *string              `json:"notes,omitempty"`
	ApprovedAt    *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy    *uuid.UUID           `json:"approved_by,omitempty"`
	ApprovalNotes *string              `json:"approval_notes,omitempty"`
	Items         []jobOrderItemDTO    `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toJobOrderDTO(order *models.JobOrder) jobOrderDTO {
	items := make([]jobOrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, jobOrderItemDTO{
			ID:              item.ID,
			CatalogItemID:   item.CatalogItemID,
			CatalogItemName: item.CatalogItemName,
			CatalogItemType: item.CatalogItemType,
			Quantity:        item.Quantity,
			BasePrice:       item.BasePrice,
			LaborPrice:      item.LaborPrice,
			PackagingPrice:  item.PackagingPrice,
			LineTotal:       item.LineTotal,
		})
	}
	return jobOrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		VehicleID:     order.VehicleID,
		BranchID:      order.BranchID,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		Notes:         order.Notes,
		ApprovedAt:    order.ApprovedAt,
		ApprovedBy:    order.ApprovedBy,
		ApprovalNotes: order.ApprovalNotes,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

type jobOrderPage struct {
	Orders     []jobOrderDTO `json:"orders"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type auditLogDTO struct {
	ID         uuid.UUID             `json:"id"`
	Action     enums.AuditAction     `json:"action"`
	EntityType enums.AuditEntityType `json:"entity_type"`
	EntityID   *uuid.UUID            `json:"entity_id,omitempty"`
	ActorID    uuid.UUID             `json:"actor_id"`
	BranchID   *uuid.UUID            `json:"branch_id,omitempty"`
	Outcome    enums.AuditOutcome    `json:"outcome"`
	Details    json.RawMessage       `json:"details,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

func toAuditLogDTO(entry *models.AuditLog) auditLogDTO {
	return auditLogDTO{
		ID:         entry.ID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		BranchID:   entry.BranchID,
		Outcome:    entry.Outcome,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt,
	}
}

type auditLogPage struct {
	Entries    []auditLogDTO `json:"entries"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// nextCursor encodes the pagination cursor for the last row of a page, or
// returns "" when no further page exists.
func nextCursor[T any](rows []T, more bool, keyOf func(T) pagination.Cursor) string {
	if !more || len(rows) == 0 {
		return ""
	}
	return pagination.EncodeCursor(keyOf(rows[len(rows)-1]))
}
