package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// managerRoles may manage branch catalog items. Global items are stricter:
// only head managers may mutate them.
var managerRoles = []enums.Role{
	enums.RoleHeadManager,
	enums.RolePointOfContact,
	enums.RoleJobSupervisor,
}

// Service exposes catalog item operations.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateItemInput) (*models.CatalogItem, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateItemInput) (*models.CatalogItem, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteResult, error)
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.CatalogItem, error)
	List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.CatalogItem, bool, error)
}

// CreateItemInput captures the fields required to add a catalog item. Exactly
// one of IsGlobal or BranchID must be set.
type CreateItemInput struct {
	Name      string
	Type      enums.CatalogItemType
	BasePrice decimal.Decimal
	BranchID  *uuid.UUID
	IsGlobal  bool
}

// UpdateItemInput captures the mutable catalog item fields.
type UpdateItemInput struct {
	Name      *string
	BasePrice *decimal.Decimal
	Status    *enums.ActivationStatus
}

// ListInput captures catalog listing options.
type ListInput struct {
	BranchID        *uuid.UUID
	GlobalOnly      bool
	IncludeInactive bool
	Pagination      pagination.Params
}

// DeleteResult reports whether the item was removed or only deactivated.
type DeleteResult struct {
	Deactivated bool
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService builds a catalog service with the provided dependencies.
func NewService(repo Repository, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, recorder: recorder}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateItemInput) (*models.CatalogItem, error) {
	if err := validateScope(input.IsGlobal, input.BranchID); err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, input.IsGlobal, input.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, input.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item type")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	item := &models.CatalogItem{
		Name:      name,
		Type:      input.Type,
		BasePrice: input.BasePrice,
		Status:    enums.ActivationStatusActive,
		BranchID:  input.BranchID,
		IsGlobal:  input.IsGlobal,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, input.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create catalog item")
	}

	s.record(ctx, principal, enums.AuditActionCreate, &item.ID, item.BranchID, enums.AuditOutcomeSuccess, map[string]any{"name": item.Name, "is_global": item.IsGlobal})
	return item, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateItemInput) (*models.CatalogItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, item.IsGlobal, item.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, item.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = name
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
		}
		item.BasePrice = *input.BasePrice
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
		}
		item.Status = *input.Status
	}

	if err := s.repo.Update(ctx, item); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, item.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update catalog item")
	}

	s.record(ctx, principal, enums.AuditActionUpdate, &id, item.BranchID, enums.AuditOutcomeSuccess, nil)
	return item, nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteResult, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, item.IsGlobal, item.BranchID); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, item.BranchID, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, err
	}

	err = s.repo.Delete(ctx, id)
	if err == nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, item.BranchID, enums.AuditOutcomeSuccess, nil)
		return &DeleteResult{Deactivated: false}, nil
	}
	if !db.IsForeignKeyViolation(err) {
		s.record(ctx, principal, enums.AuditActionDelete, &id, item.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete catalog item")
	}

	// Referenced by job order snapshots; deactivate instead.
	item.Status = enums.ActivationStatusInactive
	if err := s.repo.Update(ctx, item); err != nil {
		s.record(ctx, principal, enums.AuditActionDelete, &id, item.BranchID, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate catalog item")
	}

	s.record(ctx, principal, enums.AuditActionDelete, &id, item.BranchID, enums.AuditOutcomeSuccess, map[string]any{"deactivated": true})
	return &DeleteResult{Deactivated: true}, nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.CatalogItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanViewCatalogItem(item.IsGlobal, item.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another branch")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, input ListInput) ([]models.CatalogItem, bool, error) {
	if input.BranchID != nil && !principal.CanAccessBranch(*input.BranchID) {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	if input.BranchID == nil && !input.GlobalOnly && !principal.IsHeadManager() {
		// Branch staff see their own branch plus global items; an unfiltered
		// listing is reserved for head managers.
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "branch filter required")
	}

	rows, err := s.repo.List(ctx, ListFilter{
		BranchID:        input.BranchID,
		GlobalOnly:      input.GlobalOnly,
		IncludeInactive: input.IncludeInactive,
	}, input.Pagination)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list catalog items")
	}
	page, hasMore := pagination.TrimPage(rows, input.Pagination.Limit)
	return page, hasMore, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog item")
	}
	return item, nil
}

func (s *service) authorizeWrite(principal authz.Principal, isGlobal bool, branchID *uuid.UUID) error {
	if isGlobal {
		if !principal.CanManageGlobalCatalog() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only head managers can manage global items")
		}
		return nil
	}
	if !principal.HasAnyRole(managerRoles...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage catalog items")
	}
	if branchID == nil || !principal.CanAccessBranch(*branchID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "branch not assigned")
	}
	return nil
}

func validateScope(isGlobal bool, branchID *uuid.UUID) error {
	if isGlobal && branchID != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "global items cannot carry a branch")
	}
	if !isGlobal && branchID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch items require a branch")
	}
	return nil
}

func (s *service) record(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID, branchID *uuid.UUID, outcome enums.AuditOutcome, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityCatalogItem,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   branchID,
		Outcome:    outcome,
		Details:    details,
	})
}
