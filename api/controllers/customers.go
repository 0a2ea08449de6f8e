package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/customers"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type createCustomerRequest struct {
	BranchID uuid.UUID `json:"branch_id" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	Phone    *string   `json:"phone"`
	Email    *string   `json:"email" validate:"omitempty,email"`
}

type updateCustomerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var req createCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Create(r.Context(), principal, customers.CreateCustomerInput{
			BranchID: req.BranchID,
			Name:     req.Name,
			Phone:    req.Phone,
			Email:    req.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCustomerDTO(customer))
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		customerID, err := parseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), principal, customerID, customers.UpdateCustomerInput{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCustomerDTO(customer))
	}
}

func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		customerID, err := parseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		customerID, err := parseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.GetByID(r.Context(), principal, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCustomerDTO(customer))
	}
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
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

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, more, err := svc.ListByBranch(r.Context(), principal, *branchID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := customerPage{Customers: make([]customerDTO, 0, len(list))}
		for i := range list {
			page.Customers = append(page.Customers, toCustomerDTO(&list[i]))
		}
		page.NextCursor = nextCursor(list, more, func(c models.Customer) pagination.Cursor {
			return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
		})
		responses.WriteSuccess(w, page)
	}
}
