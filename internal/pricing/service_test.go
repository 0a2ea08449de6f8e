package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type recorderStub struct {
	events []audit.Event
}

func (r *recorderStub) Record(ctx context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (r *recorderStub) Close(ctx context.Context) error { return nil }

// failingRulesStub wraps rulesStub and injects errors on writes.
type failingRulesStub struct {
	*rulesStub
	createErr error
	deleteErr error
}

func (f *failingRulesStub) Create(ctx context.Context, rule *models.PricingRule) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.rulesStub.Create(ctx, rule)
}

func (f *failingRulesStub) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.rulesStub.Delete(ctx, id)
}

func principalWith(role enums.Role, branchIDs ...uuid.UUID) authz.Principal {
	return authz.NewPrincipal(uuid.New(), []enums.Role{role}, branchIDs)
}

func newServiceFixture(t *testing.T, item *models.CatalogItem) (*rulesStub, Service) {
	t.Helper()
	rules := newRulesStub()
	catalog := &catalogStub{byID: map[uuid.UUID]*models.CatalogItem{}}
	if item != nil {
		catalog.byID[item.ID] = item
	}
	res, err := NewResolver(rules, catalog, logger.New(logger.Options{ServiceName: "pricing-test"}))
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}
	svc, err := NewService(rules, res, &recorderStub{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return rules, svc
}

func TestCreateRuleConflictGuard(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	_, svc := newServiceFixture(t, item)
	actor := principalWith(enums.RolePointOfContact, branchID)

	first, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypeLabor,
		Price:         money("50.00"),
	})
	if err != nil {
		t.Fatalf("first CreateRule returned error: %v", err)
	}

	_, err = svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypeLabor,
		Price:         money("60.00"),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok || details["existing_rule_id"] != first.ID.String() {
		t.Fatalf("conflict must name the existing rule, got %v", appErr.Details())
	}

	// A packaging rule for the same item and branch is fine.
	if _, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypePackaging,
		Price:         money("20.00"),
	}); err != nil {
		t.Fatalf("packaging rule creation failed: %v", err)
	}
}

func TestCreateRuleMapsIndexViolationToConflict(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")

	rules := &failingRulesStub{rulesStub: newRulesStub()}
	catalog := &catalogStub{byID: map[uuid.UUID]*models.CatalogItem{item.ID: item}}
	res, _ := NewResolver(rules.rulesStub, catalog, logger.New(logger.Options{ServiceName: "pricing-test"}))
	svc, _ := NewService(rules, res, &recorderStub{})

	rules.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "ux_pricing_rules_active"}

	_, err := svc.CreateRule(context.Background(), principalWith(enums.RoleJobSupervisor, branchID), CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypeLabor,
		Price:         money("50.00"),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("index violation must surface as conflict, got %v", err)
	}
}

func TestUpdateRuleReactivationGuard(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	_, svc := newServiceFixture(t, item)
	actor := principalWith(enums.RoleHeadManager)

	first, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID, BranchID: branchID,
		PricingType: enums.PricingTypeLabor, Price: money("50.00"),
	})
	if err != nil {
		t.Fatalf("create first rule: %v", err)
	}

	inactive := enums.ActivationStatusInactive
	if _, err := svc.UpdateRule(context.Background(), actor, first.ID, UpdateRuleInput{Status: &inactive}); err != nil {
		t.Fatalf("deactivate first rule: %v", err)
	}

	second, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID, BranchID: branchID,
		PricingType: enums.PricingTypeLabor, Price: money("60.00"),
	})
	if err != nil {
		t.Fatalf("create second rule after deactivation: %v", err)
	}
	_ = second

	// Re-activating the first rule would collide with the second.
	active := enums.ActivationStatusActive
	_, err = svc.UpdateRule(context.Background(), actor, first.ID, UpdateRuleInput{Status: &active})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on reactivation, got %v", err)
	}
}

func TestDeleteRuleDegradesToDeactivate(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")

	rules := &failingRulesStub{rulesStub: newRulesStub()}
	catalog := &catalogStub{byID: map[uuid.UUID]*models.CatalogItem{item.ID: item}}
	res, _ := NewResolver(rules.rulesStub, catalog, logger.New(logger.Options{ServiceName: "pricing-test"}))
	svc, _ := NewService(rules, res, &recorderStub{})
	actor := principalWith(enums.RolePointOfContact, branchID)

	rule, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID, BranchID: branchID,
		PricingType: enums.PricingTypeLabor, Price: money("50.00"),
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	rules.deleteErr = &pgconn.PgError{Code: "23503"}

	result, err := svc.DeleteRule(context.Background(), actor, rule.ID)
	if err != nil {
		t.Fatalf("DeleteRule returned error: %v", err)
	}
	if !result.Deactivated {
		t.Fatal("expected soft delete")
	}
	if rules.byID[rule.ID].Status != enums.ActivationStatusInactive {
		t.Fatal("rule must be inactive after soft delete")
	}
}

func TestRuleManagementRoleGate(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	_, svc := newServiceFixture(t, item)

	for _, role := range []enums.Role{enums.RoleReceptionist, enums.RoleTechnician} {
		_, err := svc.CreateRule(context.Background(), principalWith(role, branchID), CreateRuleInput{
			CatalogItemID: item.ID, BranchID: branchID,
			PricingType: enums.PricingTypeLabor, Price: money("50.00"),
		})
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
			t.Fatalf("role %s: expected forbidden, got %v", role, err)
		}
	}

	_, err := svc.CreateRule(context.Background(), principalWith(enums.RoleJobSupervisor, uuid.New()), CreateRuleInput{
		CatalogItemID: item.ID, BranchID: branchID,
		PricingType: enums.PricingTypeLabor, Price: money("50.00"),
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unassigned branch, got %v", err)
	}
}

func TestResolvePricingOperation(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	rules, svc := newServiceFixture(t, item)

	labor := activeRule(item.ID, branchID, enums.PricingTypeLabor, "50.00", time.Now())
	_ = rules.Create(context.Background(), &labor)

	// Any role with branch access can resolve; quantity defaults to 1.
	result, err := svc.ResolvePricing(context.Background(), principalWith(enums.RoleTechnician, branchID), ResolveInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
	})
	if err != nil {
		t.Fatalf("ResolvePricing returned error: %v", err)
	}
	if result.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", result.Quantity)
	}
	if !result.LineTotal.Equal(money("150.00")) {
		t.Fatalf("expected 150.00, got %s", result.LineTotal)
	}

	_, err = svc.ResolvePricing(context.Background(), principalWith(enums.RoleTechnician, branchID), ResolveInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		Quantity:      -2,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}

	_, err = svc.ResolvePricing(context.Background(), principalWith(enums.RoleTechnician, uuid.New()), ResolveInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unassigned branch, got %v", err)
	}
}

func TestListByBranchScoped(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	rules, svc := newServiceFixture(t, item)

	labor := activeRule(item.ID, branchID, enums.PricingTypeLabor, "50.00", time.Now())
	_ = rules.Create(context.Background(), &labor)

	page, _, err := svc.ListByBranch(context.Background(), principalWith(enums.RoleJobSupervisor, branchID), branchID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListByBranch returned error: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(page))
	}

	_, _, err = svc.ListByBranch(context.Background(), principalWith(enums.RoleJobSupervisor, uuid.New()), branchID, pagination.Params{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGetRuleNotFound(t *testing.T) {
	branchID := uuid.New()
	_, svc := newServiceFixture(t, branchItem(branchID, "100.00"))

	_, err := svc.GetRule(context.Background(), principalWith(enums.RoleHeadManager), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

var _ Repository = (*failingRulesStub)(nil)

func TestCreateRuleInactiveSkipsConflictGuard(t *testing.T) {
	branchID := uuid.New()
	item := branchItem(branchID, "100.00")
	_, svc := newServiceFixture(t, item)
	actor := principalWith(enums.RolePointOfContact, branchID)

	if _, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypeLabor,
		Price:         money("50.00"),
	}); err != nil {
		t.Fatalf("active CreateRule returned error: %v", err)
	}

	inactive := enums.ActivationStatusInactive
	rule, err := svc.CreateRule(context.Background(), actor, CreateRuleInput{
		CatalogItemID: item.ID,
		BranchID:      branchID,
		PricingType:   enums.PricingTypeLabor,
		Price:         money("60.00"),
		Status:        &inactive,
	})
	if err != nil {
		t.Fatalf("inactive CreateRule returned error: %v", err)
	}
	if rule.Status != enums.ActivationStatusInactive {
		t.Fatalf("expected inactive rule, got %s", rule.Status)
	}
}
