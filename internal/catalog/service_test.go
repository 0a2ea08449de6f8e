package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type recorderStub struct {
	events []audit.Event
}

func (r *recorderStub) Record(ctx context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (r *recorderStub) Close(ctx context.Context) error { return nil }

type repoStub struct {
	byID      map[uuid.UUID]*models.CatalogItem
	deleteErr error
}

func newRepoStub() *repoStub {
	return &repoStub{byID: map[uuid.UUID]*models.CatalogItem{}}
}

func (r *repoStub) WithTx(tx *gorm.DB) Repository { return r }

func (r *repoStub) Create(ctx context.Context, item *models.CatalogItem) error {
	item.ID = uuid.New()
	r.byID[item.ID] = item
	return nil
}

func (r *repoStub) Update(ctx context.Context, item *models.CatalogItem) error {
	r.byID[item.ID] = item
	return nil
}

func (r *repoStub) Delete(ctx context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.byID, id)
	return nil
}

func (r *repoStub) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	item, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *repoStub) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	for _, item := range r.byID {
		if filter.GlobalOnly && !item.IsGlobal {
			continue
		}
		if filter.BranchID != nil && !item.IsGlobal && (item.BranchID == nil || *item.BranchID != *filter.BranchID) {
			continue
		}
		if !filter.IncludeInactive && item.Status != enums.ActivationStatusActive {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func principalWith(role enums.Role, branchIDs ...uuid.UUID) authz.Principal {
	return authz.NewPrincipal(uuid.New(), []enums.Role{role}, branchIDs)
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCreateGlobalItemHeadManagerOnly(t *testing.T) {
	repo := newRepoStub()
	svc, err := NewService(repo, &recorderStub{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	branchID := uuid.New()
	input := CreateItemInput{Name: "Oil Change", Type: enums.CatalogItemTypeService, BasePrice: price("49.90"), IsGlobal: true}

	_, err = svc.Create(context.Background(), principalWith(enums.RolePointOfContact, branchID), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for POC, got %v", err)
	}

	item, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !item.IsGlobal || item.BranchID != nil {
		t.Fatalf("unexpected scope: %+v", item)
	}
}

func TestCreateItemScopeValidation(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()

	_, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateItemInput{
		Name: "Oil Change", Type: enums.CatalogItemTypeService, BasePrice: price("49.90"),
		IsGlobal: true, BranchID: &branchID,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for global item with branch, got %v", err)
	}

	_, err = svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateItemInput{
		Name: "Oil Change", Type: enums.CatalogItemTypeService, BasePrice: price("49.90"),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for branch item without branch, got %v", err)
	}
}

func TestCreateBranchItem(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()

	item, err := svc.Create(context.Background(), principalWith(enums.RoleJobSupervisor, branchID), CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if item.Status != enums.ActivationStatusActive {
		t.Fatal("new items must start active")
	}

	_, err = svc.Create(context.Background(), principalWith(enums.RoleReceptionist, branchID), CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for receptionist, got %v", err)
	}
}

func TestGlobalItemVisibleToBranchStaff(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})

	item, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateItemInput{
		Name: "Oil Change", Type: enums.CatalogItemTypeService, BasePrice: price("49.90"), IsGlobal: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.GetByID(context.Background(), principalWith(enums.RoleTechnician, uuid.New()), item.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.ID != item.ID {
		t.Fatal("unexpected item returned")
	}
}

func TestBranchItemHiddenFromOtherBranch(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()

	item, err := svc.Create(context.Background(), principalWith(enums.RoleJobSupervisor, branchID), CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.GetByID(context.Background(), principalWith(enums.RoleJobSupervisor, uuid.New()), item.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteDegradesToDeactivate(t *testing.T) {
	repo := newRepoStub()
	recorder := &recorderStub{}
	svc, _ := NewService(repo, recorder)
	branchID := uuid.New()
	actor := principalWith(enums.RolePointOfContact, branchID)

	item, err := svc.Create(context.Background(), actor, CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	repo.deleteErr = &pgconn.PgError{Code: "23503", ConstraintName: "fk_job_order_items_catalog_item"}

	result, err := svc.Delete(context.Background(), actor, item.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !result.Deactivated {
		t.Fatal("expected soft delete")
	}
	if repo.byID[item.ID].Status != enums.ActivationStatusInactive {
		t.Fatal("item must be inactive after soft delete")
	}
}

func TestDeleteRemovesUnreferencedItem(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()
	actor := principalWith(enums.RolePointOfContact, branchID)

	item, err := svc.Create(context.Background(), actor, CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, err := svc.Delete(context.Background(), actor, item.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if result.Deactivated {
		t.Fatal("expected hard delete")
	}
	if _, ok := repo.byID[item.ID]; ok {
		t.Fatal("item must be gone")
	}
}

func TestListRequiresBranchFilterForBranchStaff(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()

	_, _, err := svc.List(context.Background(), principalWith(enums.RoleReceptionist, branchID), ListInput{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden without branch filter, got %v", err)
	}

	if _, _, err := svc.List(context.Background(), principalWith(enums.RoleHeadManager), ListInput{}); err != nil {
		t.Fatalf("head manager unfiltered list failed: %v", err)
	}
}

func TestListIncludesGlobalItems(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})
	branchID := uuid.New()

	if _, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateItemInput{
		Name: "Oil Change", Type: enums.CatalogItemTypeService, BasePrice: price("49.90"), IsGlobal: true,
	}); err != nil {
		t.Fatalf("create global failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), principalWith(enums.RoleJobSupervisor, branchID), CreateItemInput{
		Name: "Brake Pads", Type: enums.CatalogItemTypeProduct, BasePrice: price("120.00"), BranchID: &branchID,
	}); err != nil {
		t.Fatalf("create branch item failed: %v", err)
	}

	items, _, err := svc.List(context.Background(), principalWith(enums.RoleReceptionist, branchID), ListInput{BranchID: &branchID})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected branch and global items, got %d", len(items))
	}
}
