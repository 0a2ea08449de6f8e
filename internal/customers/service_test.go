package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
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
	byID    map[uuid.UUID]*models.Customer
	deleted []uuid.UUID
}

func newRepoStub() *repoStub {
	return &repoStub{byID: map[uuid.UUID]*models.Customer{}}
}

func (r *repoStub) WithTx(tx *gorm.DB) Repository { return r }

func (r *repoStub) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New()
	r.byID[customer.ID] = customer
	return nil
}

func (r *repoStub) Update(ctx context.Context, customer *models.Customer) error {
	r.byID[customer.ID] = customer
	return nil
}

func (r *repoStub) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *repoStub) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (r *repoStub) ListByBranch(ctx context.Context, branchID uuid.UUID, params pagination.Params) ([]models.Customer, error) {
	var all []models.Customer
	for _, customer := range r.byID {
		if customer.BranchID == branchID {
			all = append(all, *customer)
		}
	}
	return all, nil
}

func principalWith(role enums.Role, branchIDs ...uuid.UUID) authz.Principal {
	return authz.NewPrincipal(uuid.New(), []enums.Role{role}, branchIDs)
}

func TestCreateCustomerBranchScoped(t *testing.T) {
	repo := newRepoStub()
	recorder := &recorderStub{}
	svc, err := NewService(repo, recorder)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	branchID := uuid.New()
	otherBranch := uuid.New()

	_, err = svc.Create(context.Background(), principalWith(enums.RoleReceptionist, branchID), CreateCustomerInput{
		BranchID: otherBranch,
		Name:     "Dana Cruz",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unassigned branch, got %v", err)
	}

	customer, err := svc.Create(context.Background(), principalWith(enums.RoleReceptionist, branchID), CreateCustomerInput{
		BranchID: branchID,
		Name:     "Dana Cruz",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if customer.BranchID != branchID {
		t.Fatal("customer bound to wrong branch")
	}
}

func TestCreateCustomerTechnicianForbidden(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})

	branchID := uuid.New()
	_, err := svc.Create(context.Background(), principalWith(enums.RoleTechnician, branchID), CreateCustomerInput{
		BranchID: branchID,
		Name:     "Dana Cruz",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for technician, got %v", err)
	}
}

func TestHeadManagerBypassesBranchScope(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})

	customer, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateCustomerInput{
		BranchID: uuid.New(),
		Name:     "Dana Cruz",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := svc.GetByID(context.Background(), principalWith(enums.RoleHeadManager), customer.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.ID != customer.ID {
		t.Fatal("unexpected customer returned")
	}
}

func TestUpdateAndDeleteCustomer(t *testing.T) {
	repo := newRepoStub()
	recorder := &recorderStub{}
	svc, _ := NewService(repo, recorder)

	branchID := uuid.New()
	actor := principalWith(enums.RoleJobSupervisor, branchID)

	customer, err := svc.Create(context.Background(), actor, CreateCustomerInput{BranchID: branchID, Name: "Dana Cruz"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	phone := "555-0142"
	updated, err := svc.Update(context.Background(), actor, customer.ID, UpdateCustomerInput{Phone: &phone})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Phone == nil || *updated.Phone != phone {
		t.Fatal("phone not updated")
	}

	if err := svc.Delete(context.Background(), actor, customer.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected delete to reach the repository")
	}
}

func TestGetCustomerOtherBranchForbidden(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})

	branchID := uuid.New()
	customer, err := svc.Create(context.Background(), principalWith(enums.RoleHeadManager), CreateCustomerInput{BranchID: branchID, Name: "Dana Cruz"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.GetByID(context.Background(), principalWith(enums.RoleReceptionist, uuid.New()), customer.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListByBranchForbidden(t *testing.T) {
	repo := newRepoStub()
	svc, _ := NewService(repo, &recorderStub{})

	_, _, err := svc.ListByBranch(context.Background(), principalWith(enums.RoleReceptionist, uuid.New()), uuid.New(), pagination.Params{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
