package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/joborders"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type jobOrderItemRequest struct {
	CatalogItemID uuid.UUID `json:"catalog_item_id" validate:"required"`
	Quantity      int       `json:"quantity"`
}

type createJobOrderRequest struct {
	CustomerID uuid.UUID             `json:"customer_id" validate:"required"`
	VehicleID  uuid.UUID             `json:"vehicle_id" validate:"required"`
	BranchID   uuid.UUID             `json:"branch_id" validate:"required"`
	Notes      *string               `json:"notes"`
	Items      []jobOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateJobOrderRequest struct {
	Notes *string `json:"notes"`
}

type approvalRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Notes    *string `json:"notes"`
}

func JobOrderCreate(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var req createJobOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]joborders.OrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, joborders.OrderItemInput{
				CatalogItemID: item.CatalogItemID,
				Quantity:      item.Quantity,
			})
		}

		order, err := svc.Create(r.Context(), principal, joborders.CreateOrderInput{
			CustomerID: req.CustomerID,
			VehicleID:  req.VehicleID,
			BranchID:   req.BranchID,
			Notes:      req.Notes,
			Items:      items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toJobOrderDTO(order))
	}
}

func JobOrderUpdateNotes(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateJobOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateNotes(r.Context(), principal, orderID, req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toJobOrderDTO(order))
	}
}

func JobOrderDelete(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func JobOrderRequestApproval(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RequestApproval(r.Context(), principal, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toJobOrderDTO(order))
	}
}

func JobOrderApproval(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req approvalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseApprovalDecision(req.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown decision"))
			return
		}

		order, err := svc.RecordApproval(r.Context(), principal, orderID, joborders.ApprovalInput{
			Decision: decision,
			Notes:    req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toJobOrderDTO(order))
	}
}

func JobOrderDetail(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), principal, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toJobOrderDTO(order))
	}
}

func JobOrderList(svc joborders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if branchID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "branch_id query parameter is required"))
			return
		}

		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := joborders.ListInput{
			BranchID:   *branchID,
			CustomerID: customerID,
			Pagination: params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseJobOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			input.Status = &status
		}

		list, more, err := svc.List(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := jobOrderPage{Orders: make([]jobOrderDTO, 0, len(list))}
		for i := range list {
			page.Orders = append(page.Orders, toJobOrderDTO(&list[i]))
		}
		page.NextCursor = nextCursor(list, more, func(order models.JobOrder) pagination.Cursor {
			return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
		})
		responses.WriteSuccess(w, page)
	}
}
