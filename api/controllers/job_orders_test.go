package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/api/middleware"
	"github.com/servicelane/servicelane-backend/internal/authz"
	"github.com/servicelane/servicelane-backend/internal/joborders"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
	"github.com/servicelane/servicelane-backend/pkg/types"
)

type stubJobOrdersService struct {
	create          func(ctx context.Context, principal authz.Principal, input joborders.CreateOrderInput) (*models.JobOrder, error)
	recordApproval  func(ctx context.Context, principal authz.Principal, id uuid.UUID, input joborders.ApprovalInput) (*models.JobOrder, error)
	requestApproval func(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error)
	list            func(ctx context.Context, principal authz.Principal, input joborders.ListInput) ([]models.JobOrder, bool, error)
}

func (s *stubJobOrdersService) Create(ctx context.Context, principal authz.Principal, input joborders.CreateOrderInput) (*models.JobOrder, error) {
	if s.create != nil {
		return s.create(ctx, principal, input)
	}
	panic("unexpected Create")
}

func (s *stubJobOrdersService) UpdateNotes(ctx context.Context, principal authz.Principal, id uuid.UUID, notes *string) (*models.JobOrder, error) {
	panic("unexpected UpdateNotes")
}

func (s *stubJobOrdersService) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	panic("unexpected Delete")
}

func (s *stubJobOrdersService) RequestApproval(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error) {
	if s.requestApproval != nil {
		return s.requestApproval(ctx, principal, id)
	}
	panic("unexpected RequestApproval")
}

func (s *stubJobOrdersService) RecordApproval(ctx context.Context, principal authz.Principal, id uuid.UUID, input joborders.ApprovalInput) (*models.JobOrder, error) {
	if s.recordApproval != nil {
		return s.recordApproval(ctx, principal, id, input)
	}
	panic("unexpected RecordApproval")
}

func (s *stubJobOrdersService) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.JobOrder, error) {
	panic("unexpected GetByID")
}

func (s *stubJobOrdersService) List(ctx context.Context, principal authz.Principal, input joborders.ListInput) ([]models.JobOrder, bool, error) {
	if s.list != nil {
		return s.list(ctx, principal, input)
	}
	panic("unexpected List")
}

var _ joborders.Service = (*stubJobOrdersService)(nil)

func receptionistPrincipal(branchID uuid.UUID) authz.Principal {
	return authz.NewPrincipal(uuid.New(), []enums.Role{enums.RoleReceptionist}, []uuid.UUID{branchID})
}

func withPrincipal(req *http.Request, principal authz.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), principal))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestJobOrderCreateReturnsCreatedOrder(t *testing.T) {
	branchID := uuid.New()
	customerID := uuid.New()
	vehicleID := uuid.New()
	itemID := uuid.New()

	var captured joborders.CreateOrderInput
	svc := &stubJobOrdersService{
		create: func(_ context.Context, _ authz.Principal, input joborders.CreateOrderInput) (*models.JobOrder, error) {
			captured = input
			return &models.JobOrder{
				ID:          uuid.New(),
				OrderNumber: "JO-20260301-abc123",
				CustomerID:  input.CustomerID,
				VehicleID:   input.VehicleID,
				BranchID:    input.BranchID,
				Status:      enums.JobOrderStatusCreated,
				TotalAmount: decimal.RequireFromString("400.00"),
			}, nil
		},
	}

	body := `{"customer_id":"` + customerID.String() + `","vehicle_id":"` + vehicleID.String() + `","branch_id":"` + branchID.String() + `","items":[{"catalog_item_id":"` + itemID.String() + `","quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-orders", strings.NewReader(body))
	req = withPrincipal(req, receptionistPrincipal(branchID))
	resp := httptest.NewRecorder()
	JobOrderCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if captured.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 got %d", captured.Items[0].Quantity)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := envelope.Data.(map[string]any)
	if payload["order_number"] != "JO-20260301-abc123" {
		t.Fatalf("unexpected order number %v", payload["order_number"])
	}
}

func TestJobOrderCreateRejectsUnauthenticated(t *testing.T) {
	svc := &stubJobOrdersService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	JobOrderCreate(svc, nil)(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestJobOrderCreateRejectsEmptyItems(t *testing.T) {
	branchID := uuid.New()
	svc := &stubJobOrdersService{}

	body := `{"customer_id":"` + uuid.NewString() + `","vehicle_id":"` + uuid.NewString() + `","branch_id":"` + branchID.String() + `","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-orders", strings.NewReader(body))
	req = withPrincipal(req, receptionistPrincipal(branchID))
	resp := httptest.NewRecorder()
	JobOrderCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestJobOrderApprovalRejectsUnknownDecision(t *testing.T) {
	branchID := uuid.New()
	svc := &stubJobOrdersService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-orders/x/approval", strings.NewReader(`{"decision":"maybe"}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	req = withPrincipal(req, receptionistPrincipal(branchID))
	resp := httptest.NewRecorder()
	JobOrderApproval(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestJobOrderApprovalPassesDecisionThrough(t *testing.T) {
	branchID := uuid.New()
	orderID := uuid.New()

	var captured joborders.ApprovalInput
	svc := &stubJobOrdersService{
		recordApproval: func(_ context.Context, _ authz.Principal, id uuid.UUID, input joborders.ApprovalInput) (*models.JobOrder, error) {
			if id != orderID {
				t.Fatalf("expected order %s got %s", orderID, id)
			}
			captured = input
			return &models.JobOrder{ID: id, Status: enums.JobOrderStatusApproved}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-orders/x/approval", strings.NewReader(`{"decision":"approved","notes":"looks good"}`))
	req = withURLParam(req, "orderId", orderID.String())
	req = withPrincipal(req, receptionistPrincipal(branchID))
	resp := httptest.NewRecorder()
	JobOrderApproval(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if captured.Decision != enums.ApprovalDecisionApproved {
		t.Fatalf("expected approve decision got %s", captured.Decision)
	}
	if captured.Notes == nil || *captured.Notes != "looks good" {
		t.Fatalf("expected notes to pass through")
	}
}

func TestJobOrderListRequiresBranchFilter(t *testing.T) {
	svc := &stubJobOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job-orders", nil)
	req = withPrincipal(req, receptionistPrincipal(uuid.New()))
	resp := httptest.NewRecorder()
	JobOrderList(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestJobOrderListEmitsNextCursor(t *testing.T) {
	branchID := uuid.New()
	svc := &stubJobOrdersService{
		list: func(_ context.Context, _ authz.Principal, input joborders.ListInput) ([]models.JobOrder, bool, error) {
			if input.BranchID != branchID {
				t.Fatalf("expected branch filter %s got %s", branchID, input.BranchID)
			}
			return []models.JobOrder{{ID: uuid.New(), BranchID: branchID}}, true, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/job-orders?branch_id="+branchID.String(), nil)
	req = withPrincipal(req, receptionistPrincipal(branchID))
	resp := httptest.NewRecorder()
	JobOrderList(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := envelope.Data.(map[string]any)
	if payload["next_cursor"] == nil || payload["next_cursor"] == "" {
		t.Fatal("expected a next_cursor on a truncated page")
	}
	if _, err := pagination.ParseCursor(payload["next_cursor"].(string)); err != nil {
		t.Fatalf("next_cursor must round-trip: %v", err)
	}
}
