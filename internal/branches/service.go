package branches

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

// Service exposes branch operations. Creation and mutation are reserved for
// head managers; reads serve any authenticated principal.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateBranchInput) (*models.Branch, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateBranchInput) (*models.Branch, error)
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Branch, error)
	List(ctx context.Context, principal authz.Principal) ([]models.Branch, error)
}

// CreateBranchInput captures the fields required to open a branch.
type CreateBranchInput struct {
	Name    string
	Code    string
	Address *string
	Phone   *string
}

// UpdateBranchInput captures the mutable branch fields.
type UpdateBranchInput struct {
	Name     *string
	Address  *string
	Phone    *string
	IsActive *bool
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

// NewService builds a branch service with the provided dependencies.
func NewService(repo Repository, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, recorder: recorder}, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateBranchInput) (*models.Branch, error) {
	if !principal.IsHeadManager() {
		s.record(ctx, principal, enums.AuditActionCreate, nil, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only head managers can create branches")
	}

	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch code is required")
	}

	if existing, err := s.repo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "branch code already in use")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check branch code")
	}

	branch := &models.Branch{
		Name:     name,
		Code:     code,
		Address:  input.Address,
		Phone:    input.Phone,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		s.record(ctx, principal, enums.AuditActionCreate, nil, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create branch")
	}

	s.record(ctx, principal, enums.AuditActionCreate, &branch.ID, enums.AuditOutcomeSuccess, map[string]any{"code": branch.Code})
	return branch, nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateBranchInput) (*models.Branch, error) {
	if !principal.IsHeadManager() {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, enums.AuditOutcomeFailed, map[string]any{"reason": "forbidden"})
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only head managers can update branches")
	}

	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load branch")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name cannot be empty")
		}
		branch.Name = name
	}
	if input.Address != nil {
		branch.Address = input.Address
	}
	if input.Phone != nil {
		branch.Phone = input.Phone
	}
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, branch); err != nil {
		s.record(ctx, principal, enums.AuditActionUpdate, &id, enums.AuditOutcomeFailed, nil)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update branch")
	}

	s.record(ctx, principal, enums.AuditActionUpdate, &id, enums.AuditOutcomeSuccess, nil)
	return branch, nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load branch")
	}
	return branch, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal) ([]models.Branch, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list branches")
	}
	return all, nil
}

func (s *service) record(ctx context.Context, principal authz.Principal, action enums.AuditAction, entityID *uuid.UUID, outcome enums.AuditOutcome, details map[string]any) {
	s.recorder.Record(ctx, audit.Event{
		Action:     action,
		EntityType: enums.AuditEntityBranch,
		EntityID:   entityID,
		ActorID:    principal.UserID,
		BranchID:   entityID,
		Outcome:    outcome,
		Details:    details,
	})
}
