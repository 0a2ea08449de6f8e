package controllers

import (
	"net/http"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/branches"
	"github.com/servicelane/servicelane-backend/pkg/logger"
)

type createBranchRequest struct {
	Name    string  `json:"name" validate:"required"`
	Code    string  `json:"code" validate:"required"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type updateBranchRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func BranchCreate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var req createBranchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Create(r.Context(), principal, branches.CreateBranchInput{
			Name:    req.Name,
			Code:    req.Code,
			Address: req.Address,
			Phone:   req.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBranchDTO(branch))
	}
}

func BranchUpdate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		branchID, err := parseUUIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateBranchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Update(r.Context(), principal, branchID, branches.UpdateBranchInput{
			Name:     req.Name,
			Address:  req.Address,
			Phone:    req.Phone,
			IsActive: req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBranchDTO(branch))
	}
}

func BranchDetail(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		branchID, err := parseUUIDParam(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.GetByID(r.Context(), principal, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBranchDTO(branch))
	}
}

func BranchList(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.List(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]branchDTO, 0, len(list))
		for i := range list {
			dtos = append(dtos, toBranchDTO(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"branches": dtos})
	}
}
