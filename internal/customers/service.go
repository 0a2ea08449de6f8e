package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// writerRoles may create, update, and delete customers within their branches.
var writerRoles = []enums.Role{
	enums.RoleHeadManager,
	enums.RolePointOfContact,
	enums.RoleJobSupervisor,
	enums.RoleReceptionist,
}

// Service exposes branch-scoped customer operations.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateCustomerInput) (*models.Customer, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateCustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Customer, error)
	ListByBranch(ctx context.Context, principal authz.Principal, branchID uuid.UUID, params pagination.Params) ([]models.Customer, bool, error)
}

// CreateCustomerInput captures the fields required to register a customer.
type CreateCustomerInput struct {
	BranchID uuid.UUID
	Name     string
	Phone    *string
	Email    *string
}

// UpdateCustomerInput captures the mutable customer fields.
type UpdateCustomerInput struct {
	Name  *string
	Phone *string
	Email *string
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService builds a customer service with the provided dependencies.
func NewService(repo Repository, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, recorder: recorder}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateCustomerInput) (*models.Customer, error) {
	if err := s.authorizeWrite(principal, input.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}

	customer := &models.Customer{
		BranchID: input.BranchID,
		Name:     name,
		Phone:    input.Phone,
		Email:    input.Email,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, &input.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}

	s.record(ctx, principal, enums.AuditActionCreate, &customer.ID, &customer.BranchID, enums.AuditOutcomeSuccess, nil)
	return customer, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateCustomerInput) (*models.Customer, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, customer.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &customer.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name cannot be empty")
		}
		customer.Name = name
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Email != nil {
		customer.Email = input.Email
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &customer.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
	}

	s.record(ctx, principal, enums.AuditActionUpdate, &id, &customer.BranchID, enums.AuditOutcomeSuccess, nil)
	return customer, nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	customer, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(principal, customer.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &customer.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &customer.BranchID, enums.AuditOutcomeFailed, nil)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete customer")
	}

	s.record(ctx, principal, enums.AuditActionDelete, &id, &customer.BranchID, enums.AuditOutcomeSuccess, nil)
	return nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(customer.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer belongs to another branch")
	}
	return customer, nil
}

func (s *service) ListByBranch(ctx context.Context, principal authz.Principal, branchID uuid.UUID, params pagination.Params) ([]models.Customer, bool, error) {
	if !principal.CanAccessBranch(branchID) {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}

	rows, err := s.repo.ListByBranch(ctx, branchID, params)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	page, hasMore := pagination.TrimPage(rows, params.Limit)
	return page, hasMore, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	return customer, nil
}

func (s *service) authorizeWrite(principal authz.Principal, branchID uuid.UUID) error {
	if !principal.HasAnyRole(writerRoles...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage customers")
	}
	if !principal.CanAccessBranch(branchID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	return nil
}

func (s *service) record(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, outcome enums.AuditOutcome, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityCustomer,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    outcome,
		Details:    details,
	})
}
