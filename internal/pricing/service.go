package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/pkg/db"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// activeRuleIndex is the partial unique index backing the one-active-rule
// invariant. Unique violations on it are conflicts, not internal errors.
const activeRuleIndex = "ux_pricing_rules_active"

// managerRoles may manage pricing rules within their branches.
var managerRoles = []enums.Role{
	enums.RoleHeadManager,
	enums.RolePointOfContact,
	enums.RoleJobSupervisor,
}

// Service exposes pricing rule management and price resolution.
type Service interface {
	CreateRule(ctx context.Context, principal authz.Principal, input CreateRuleInput) (*models.PricingRule, error)
	UpdateRule(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateRuleInput) (*models.PricingRule, error)
	DeleteRule(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteRuleResult, error)
	GetRule(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.PricingRule, error)
	ListByBranch(ctx context.Context, principal authz.Principal, branchID uuid.UUID, params pagination.Params) ([]models.PricingRule, bool, error)
	ResolvePricing(ctx context.Context, principal authz.Principal, input ResolveInput) (*ResolveResult, error)
}

// CreateRuleInput captures the fields required to add a pricing rule. Status
// defaults to active when nil.
type CreateRuleInput struct {
	CatalogItemID uuid.UUID
	BranchID      uuid.UUID
	PricingType   enums.PricingType
	Price         decimal.Decimal
	Status        *enums.ActivationStatus
	Description   *string
}

// UpdateRuleInput captures the mutable pricing rule fields.
type UpdateRuleInput struct {
	Price       *decimal.Decimal
	Status      *enums.ActivationStatus
	Description *string
}

// DeleteRuleResult reports whether the rule was removed or only deactivated.
type DeleteRuleResult struct {
	Deactivated bool
}

// ResolveInput captures a price resolution request.
type ResolveInput struct {
	CatalogItemID uuid.UUID
	BranchID      uuid.UUID
	Quantity      int
}

// ResolveResult is the resolved price plus the line total for the requested
// quantity.
type ResolveResult struct {
	Resolution *Resolution
	Quantity   int
	LineTotal  decimal.Decimal
}

type service struct {
	repo     Repository
	resolver Resolver
	recorder audit.Recorder
}

// NewService builds a pricing service with the provided dependencies.
func NewService(repo Repository, resolver Resolver, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, resolver: resolver, recorder: recorder}, nil
}

func (s *service) CreateRule(ctx context.Context, principal authz.Principal, input CreateRuleInput) (*models.PricingRule, error) {
	if err := s.authorizeManage(principal, input.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}
	if !input.PricingType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pricing type")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	status := enums.ActivationStatusActive
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
		}
		status = *input.Status
	}

	// Inactive rules never compete, so the guard only runs for active ones.
	if status == enums.ActivationStatusActive {
		if err := s.EnsureNoActiveConflict(ctx, input.CatalogItemID, input.BranchID, input.PricingType, nil); err != nil {
			return nil, err
		}
	}

	rule := &models.PricingRule{
		CatalogItemID: input.CatalogItemID,
		BranchID:      input.BranchID,
		PricingType:   input.PricingType,
		Price:         input.Price,
		Status:        status,
		Description:   input.Description,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		if db.IsUniqueViolation(err, activeRuleIndex) {
			// The index caught a race the guard missed.
			return nil, conflictError(input.PricingType, nil)
		}
		s.record(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pricing rule")
	}

	s.record(ctx, principal, enums.AuditActionCreate, &rule.ID, &rule.BranchID, enums.AuditOutcomeSuccess, map[string]any{"pricing_type": rule.PricingType.String()})
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateRuleInput) (*models.PricingRule, error) {
	rule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(principal, rule.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &rule.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		rule.Price = *input.Price
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
		}
		rule.Status = *input.Status
	}
	if input.Description != nil {
		rule.Description = input.Description
	}

	if rule.Status == enums.ActivationStatusActive {
		if err := s.EnsureNoActiveConflict(ctx, rule.CatalogItemID, rule.BranchID, rule.PricingType, &rule.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		if db.IsUniqueViolation(err, activeRuleIndex) {
			return nil, conflictError(rule.PricingType, nil)
		}
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &rule.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pricing rule")
	}

	s.record(ctx, principal, enums.AuditActionUpdate, &id, &rule.BranchID, enums.AuditOutcomeSuccess, nil)
	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteRuleResult, error) {
	rule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(principal, rule.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &rule.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	err = s.repo.Delete(ctx, id)
	if err == nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &rule.BranchID, enums.AuditOutcomeSuccess, nil)
		return &DeleteRuleResult{Deactivated: false}, nil
	}
	if !db.IsForeignKeyViolation(err) {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &rule.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete pricing rule")
	}

	rule.Status = enums.ActivationStatusInactive
	if err := s.repo.Update(ctx, rule); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &rule.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate pricing rule")
	}

	s.record(ctx, principal, enums.AuditActionDelete, &id, &rule.BranchID, enums.AuditOutcomeSuccess, map[string]any{"deactivated": true})
	return &DeleteRuleResult{Deactivated: true}, nil
}

func (s *service) GetRule(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.PricingRule, error) {
	rule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(rule.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "rule belongs to another branch")
	}
	return rule, nil
}

func (s *service) ListByBranch(ctx context.Context, principal authz.Principal, branchID uuid.UUID, params pagination.Params) ([]models.PricingRule, bool, error) {
	if !principal.CanAccessBranch(branchID) {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}

	rows, err := s.repo.ListByBranch(ctx, branchID, params)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pricing rules")
	}
	page, hasMore := pagination.TrimPage(rows, params.Limit)
	return page, hasMore, nil
}

func (s *service) ResolvePricing(ctx context.Context, principal authz.Principal, input ResolveInput) (*ResolveResult, error) {
	if !principal.CanAccessBranch(input.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	resolution, err := s.resolver.Resolve(ctx, input.CatalogItemID, input.BranchID)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{
		Resolution: resolution,
		Quantity:   quantity,
		LineTotal:  resolution.LineTotal(quantity),
	}, nil
}

// EnsureNoActiveConflict rejects a write that would leave two active rules
// for the same (catalog item, branch, pricing type).
func (s *service) EnsureNoActiveConflict(ctx context.Context, catalogItemID, branchID uuid.UUID, pricingType enums.PricingType, excludeRuleID *uuid.UUID) error {
	existing, err := s.repo.FindActiveConflict(ctx, catalogItemID, branchID, pricingType, excludeRuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pricing rule conflict")
	}
	return conflictError(pricingType, existing)
}

func conflictError(pricingType enums.PricingType, existing *models.PricingRule) error {
	appErr := pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("an active %s rule already exists for this item and branch; deactivate it first", pricingType))
	if existing != nil {
		appErr = appErr.WithDetails(map[string]any{"existing_rule_id": existing.ID.String()})
	}
	return appErr
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pricing rule")
	}
	return rule, nil
}

func (s *service) authorizeManage(principal authz.Principal, branchID uuid.UUID) error {
	if !principal.HasAnyRole(managerRoles...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage pricing rules")
	}
	if !principal.CanAccessBranch(branchID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	return nil
}

func (s *service) record(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, outcome enums.AuditOutcome, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityPricingRule,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    outcome,
		Details:    details,
	})
}
