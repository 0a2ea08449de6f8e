package vehicles

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
)

// writerRoles may manage vehicles within their branches.
var writerRoles = []enums.Role{
	enums.RoleHeadManager,
	enums.RolePointOfContact,
	enums.RoleJobSupervisor,
	enums.RoleReceptionist,
}

type customerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service exposes vehicle operations scoped by the owning customer's branch.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateVehicleInput) (*models.Vehicle, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateVehicleInput) (*models.Vehicle, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Vehicle, error)
	ListByCustomer(ctx context.Context, principal authz.Principal, customerID uuid.UUID) ([]models.Vehicle, error)
}

// CreateVehicleInput captures the fields required to register a vehicle.
type CreateVehicleInput struct {
	CustomerID  uuid.UUID
	PlateNumber string
	Make        *string
	Model       *string
	Year        *int
}

// UpdateVehicleInput captures the mutable vehicle fields.
type UpdateVehicleInput struct {
	PlateNumber *string
	Make        *string
	Model       *string
	Year        *int
}

type service struct {
	repo      Repository
	customers customerFinder
	recorder  audit.Recorder
}

// NewService builds a vehicle service with the provided dependencies.
func NewService(repo Repository, customers customerFinder, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer finder required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, customers: customers, recorder: recorder}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateVehicleInput) (*models.Vehicle, error) {
	branchID, err := s.branchOf(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, branchID); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, &branchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	plate := strings.TrimSpace(input.PlateNumber)
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate number is required")
	}

	vehicle := &models.Vehicle{
		CustomerID:  input.CustomerID,
		PlateNumber: plate,
		Make:        input.Make,
		Model:       input.Model,
		Year:        input.Year,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, &branchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vehicle")
	}

	s.record(ctx, principal, enums.AuditActionCreate, &vehicle.ID, &branchID, enums.AuditOutcomeSuccess, map[string]any{"plate_number": plate})
	return vehicle, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateVehicleInput) (*models.Vehicle, error) {
	vehicle, branchID, err := s.loadScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, branchID); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &branchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	if input.PlateNumber != nil {
		plate := strings.TrimSpace(*input.PlateNumber)
		if plate == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate number cannot be empty")
		}
		vehicle.PlateNumber = plate
	}
	if input.Make != nil {
		vehicle.Make = input.Make
	}
	if input.Model != nil {
		vehicle.Model = input.Model
	}
	if input.Year != nil {
		vehicle.Year = input.Year
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, &branchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle")
	}

	s.record(ctx, principal, enums.AuditActionUpdate, &id, &branchID, enums.AuditOutcomeSuccess, nil)
	return vehicle, nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	_, branchID, err := s.loadScoped(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(principal, branchID); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &branchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, &branchID, enums.AuditOutcomeFailed, nil)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete vehicle")
	}

	s.record(ctx, principal, enums.AuditActionDelete, &id, &branchID, enums.AuditOutcomeSuccess, nil)
	return nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, branchID, err := s.loadScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(branchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle belongs to another branch")
	}
	return vehicle, nil
}

func (s *service) ListByCustomer(ctx context.Context, principal authz.Principal, customerID uuid.UUID) ([]models.Vehicle, error) {
	branchID, err := s.branchOf(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBranch(branchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer belongs to another branch")
	}

	all, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles")
	}
	return all, nil
}

func (s *service) loadScoped(ctx context.Context, id uuid.UUID) (*models.Vehicle, uuid.UUID, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vehicle")
	}
	branchID, err := s.branchOf(ctx, vehicle.CustomerID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return vehicle, branchID, nil
}

func (s *service) branchOf(ctx context.Context, customerID uuid.UUID) (uuid.UUID, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	return customer.BranchID, nil
}

func (s *service) authorizeWrite(principal authz.Principal, branchID uuid.UUID) error {
	if !principal.HasAnyRole(writerRoles...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage vehicles")
	}
	if !principal.CanAccessBranch(branchID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	return nil
}

func (s *service) record(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, outcome enums.AuditOutcome, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityVehicle,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    outcome,
		Details:    details,
	})
}
