package joborders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/internal/pricing"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// Role gates per operation. Head managers pass every gate and additionally
// bypass branch scoping.
var (
	createRoles     = []enums.Role{enums.RoleHeadManager, enums.RolePointOfContact, enums.RoleJobSupervisor, enums.RoleReceptionist}
	deleteRoles     = createRoles
	transitionRoles = []enums.Role{enums.RoleHeadManager, enums.RolePointOfContact, enums.RoleJobSupervisor, enums.RoleReceptionist, enums.RoleTechnician}
	updateRoles     = transitionRoles
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type vehicleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

// Service exposes the job order lifecycle.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateOrderInput) (*models.JobOrder, error)
	UpdateNotes(ctx context.Context, principal authz.Principal, id uuid.UUID, notes *string) (*models.JobOrder, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
	RequestApproval(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error)
	RecordApproval(ctx context.Context, principal authz.Principal, id uuid.UUID, input ApprovalInput) (*models.JobOrder, error)
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error)
	List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.JobOrder, bool, error)
}

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	CatalogItemID uuid.UUID
	Quantity      int
}

// CreateOrderInput captures the fields required to open a job order.
type CreateOrderInput struct {
	CustomerID uuid.UUID
	VehicleID  uuid.UUID
	BranchID   uuid.UUID
	Notes      *string
	Items      []OrderItemInput
}

// ApprovalInput records the reviewer's decision on a pending order.
type ApprovalInput struct {
	Decision enums.ApprovalDecision
	Notes    *string
}

// ListInput captures job order listing options.
type ListInput struct {
	BranchID   uuid.UUID
	CustomerID *uuid.UUID
	Status     *enums.JobOrderStatus
	Pagination pagination.Params
}

type service struct {
	repo      Repository
	tx        txRunner
	resolver  pricing.Resolver
	customers customerFinder
	vehicles  vehicleFinder
	recorder  audit.Recorder
	now       func() time.Time
}

// NewService builds a job order service with the provided dependencies.
func NewService(repo Repository, tx txRunner, resolver pricing.Resolver, customers customerFinder, vehicles vehicleFinder, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("job order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer finder required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle finder required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		resolver:  resolver,
		customers: customers,
		vehicles:  vehicles,
		recorder:  recorder,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateOrderInput) (*models.JobOrder, error) {
	if !principal.HasAnyRole(createRoles...) {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "role cannot create job orders")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot create job orders")
	}
	if !principal.CanAccessBranch(input.BranchID) {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "branch not assigned")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	if len(input.Items) == 0 {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "a job order needs at least one item")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a job order needs at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 0 {
			s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "item quantity must be positive")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "customer not found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer.BranchID != input.BranchID {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "customer belongs to a different branch")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer belongs to a different branch")
	}

	vehicle, err := s.vehicles.FindByID(ctx, input.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "vehicle not found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}
	if vehicle.CustomerID != input.CustomerID {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "vehicle does not belong to the customer")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle does not belong to the customer")
	}

	items, total, err := s.snapshotItems(ctx, input)
	if err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, err.Error())
		return nil, err
	}

	orderNumber, err := NewOrderNumber(s.now())
	if err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, "assign order number")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign order number")
	}

	var notes *string
	if input.Notes != nil {
		trimmed := strings.TrimSpace(*input.Notes)
		if trimmed != "" {
			notes = &trimmed
		}
	}

	order := &models.JobOrder{
		OrderNumber: orderNumber,
		CustomerID:  input.CustomerID,
		VehicleID:   input.VehicleID,
		BranchID:    input.BranchID,
		Status:      enums.JobOrderStatusCreated,
		TotalAmount: total,
		Notes:       notes,
		Items:       items,
	}

	// Order and item snapshots commit or roll back together, so a failed
	// item write can never leave an orphan order behind.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, err.Error())
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create job order")
	}

	s.recordSuccess(ctx, principal, enums.AuditActionCreate, &order.ID, &order.BranchID, map[string]any{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.String(),
		"items":        len(order.Items),
	})
	return order, nil
}

func (s *service) snapshotItems(ctx context.Context, input CreateOrderInput) ([]models.JobOrderItem, decimal.Decimal, error) {
	items := make([]models.JobOrderItem, 0, len(input.Items))
	total := decimal.Zero

	for _, line := range input.Items {
		quantity := line.Quantity
		if quantity == 0 {
			quantity = 1
		}

		resolution, err := s.resolver.Resolve(ctx, line.CatalogItemID, input.BranchID)
		if err != nil {
			return nil, decimal.Zero, err
		}

		lineTotal := resolution.LineTotal(quantity)
		items = append(items, models.JobOrderItem{
			CatalogItemID:   line.CatalogItemID,
			CatalogItemName: resolution.Item.Name,
			CatalogItemType: resolution.Item.Type,
			Quantity:        quantity,
			BasePrice:       resolution.BasePrice,
			LaborPrice:      resolution.LaborPrice,
			PackagingPrice:  resolution.PackagingPrice,
			LineTotal:       lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

func (s *service) UpdateNotes(ctx context.Context, principal authz.Principal, id uuid.UUID, notes *string) (*models.JobOrder, error) {
	order, err := s.authorize(ctx, principal, id, updateRoles, enums.AuditActionUpdate)
	if err != nil {
		return nil, err
	}

	order.Notes = notes
	if err := s.repo.Update(ctx, order); err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionUpdate, &id, &order.BranchID, err.Error())
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update job order")
	}

	s.recordSuccess(ctx, principal, enums.AuditActionUpdate, &id, &order.BranchID, nil)
	return order, nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	order, err := s.authorize(ctx, principal, id, deleteRoles, enums.AuditActionDelete)
	if err != nil {
		return err
	}

	// Items go first; the order owns them.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionDelete, &id, &order.BranchID, err.Error())
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete job order")
	}

	s.recordSuccess(ctx, principal, enums.AuditActionDelete, &id, &order.BranchID, map[string]any{"order_number": order.OrderNumber})
	return nil
}

func (s *service) RequestApproval(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error) {
	order, err := s.authorize(ctx, principal, id, transitionRoles, enums.AuditActionRequestApproval)
	if err != nil {
		return nil, err
	}

	if order.Status != enums.JobOrderStatusCreated {
		msg := fmt.Sprintf("approval can only be requested from created, order is %s", order.Status)
		s.recordFailure(ctx, principal, enums.AuditActionRequestApproval, &id, &order.BranchID, msg)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msg)
	}

	order.Status = enums.JobOrderStatusPendingApproval
	if err := s.repo.Update(ctx, order); err != nil {
		s.recordFailure(ctx, principal, enums.AuditActionRequestApproval, &id, &order.BranchID, err.Error())
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request approval")
	}

	s.recordSuccess(ctx, principal, enums.AuditActionRequestApproval, &id, &order.BranchID, nil)
	return order, nil
}

func (s *service) RecordApproval(ctx context.Context, principal authz.Principal, id uuid.UUID, input ApprovalInput) (*models.JobOrder, error) {
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approved or rejected")
	}

	action := enums.AuditActionApprove
	if input.Decision == enums.ApprovalDecisionRejected {
		action = enums.AuditActionReject
	}

	order, err := s.authorize(ctx, principal, id, transitionRoles, action)
	if err != nil {
		return nil, err
	}

	if order.Status != enums.JobOrderStatusPendingApproval {
		msg := fmt.Sprintf("approval can only be recorded from pending_approval, order is %s", order.Status)
		s.recordFailure(ctx, principal, action, &id, &order.BranchID, msg)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msg)
	}

	now := s.now()
	actor := principal.UserID
	if input.Decision == enums.ApprovalDecisionApproved {
		order.Status = enums.JobOrderStatusApproved
	} else {
		order.Status = enums.JobOrderStatusRejected
	}
	order.ApprovedAt = &now
	order.ApprovedBy = &actor
	order.ApprovalNotes = input.Notes

	if err := s.repo.Update(ctx, order); err != nil {
		s.recordFailure(ctx, principal, action, &id, &order.BranchID, err.Error())
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record approval")
	}

	s.recordSuccess(ctx, principal, action, &id, &order.BranchID, map[string]any{"decision": input.Decision.String()})
	return order, nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(order.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another branch")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.JobOrder, bool, error) {
	if !principal.CanAccessBranch(input.BranchID) {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}

	filter := ListFilter{BranchID: input.BranchID, CustomerID: input.CustomerID}
	if input.Status != nil {
		status := input.Status.String()
		filter.Status = &status
	}

	rows, err := s.repo.List(ctx, filter, input.Pagination)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list job orders")
	}
	page, hasMore := pagination.TrimPage(rows, input.Pagination.Limit)
	return page, hasMore, nil
}

// authorize runs the role gate, loads the order, and runs the branch gate, in
// that order: role failures are rejected before storage is touched.
func (s *service) authorize(ctx context.Context, principal authz.Principal, id uuid.UUID, roles []enums.Role, action enums.AuditAction) (*models.JobOrder, error) {
	if !principal.HasAnyRole(roles...) {
		s.recordFailure(ctx, principal, action, &id, nil, "role not allowed")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not allowed for this operation")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(order.BranchID) {
		s.recordFailure(ctx, principal, action, &id, &order.BranchID, "branch not assigned")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another branch")
	}
	return order, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.JobOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job order")
	}
	return order, nil
}

func (s *service) recordSuccess(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityJobOrder,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    enums.AuditOutcomeSuccess,
		Details:    details,
	})
}

func (s *service) recordFailure(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, reason string) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityJobOrder,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    enums.AuditOutcomeFailed,
		Details:    map[string]any{"error": reason},
	})
}
