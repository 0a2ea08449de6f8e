package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/catalog"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type createCatalogItemRequest struct {
	Name      string          `json:"name" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	BasePrice decimal.Decimal `json:"base_price"`
	BranchID  *uuid.UUID      `json:"branch_id"`
	IsGlobal  bool            `json:"is_global"`
}

type updateCatalogItemRequest struct {
	Name      *string          `json:"name"`
	BasePrice *decimal.Decimal `json:"base_price"`
	Status    *string          `json:"status"`
}

func CatalogItemCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var req createCatalogItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemType, err := enums.ParseCatalogItemType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown catalog item type"))
			return
		}

		item, err := svc.Create(r.Context(), principal, catalog.CreateItemInput{
			Name:      req.Name,
			Type:      itemType,
			BasePrice: req.BasePrice,
			BranchID:  req.BranchID,
			IsGlobal:  req.IsGlobal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCatalogItemDTO(item))
	}
}

func CatalogItemUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCatalogItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateItemInput{
			Name:      req.Name,
			BasePrice: req.BasePrice,
		}
		if req.Status != nil {
			status, err := enums.ParseActivationStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			input.Status = &status
		}

		item, err := svc.Update(r.Context(), principal, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCatalogItemDTO(item))
	}
}

func CatalogItemDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), principal, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := "deleted"
		if result.Deactivated {
			status = "deactivated"
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

func CatalogItemDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		itemID, err := parseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetByID(r.Context(), principal, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCatalogItemDTO(item))
	}
}

func CatalogItemList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.ListInput{
			BranchID:        branchID,
			GlobalOnly:      queryFlag(r, "global_only"),
			IncludeInactive: queryFlag(r, "include_inactive"),
			Pagination:      params,
		}

		list, more, err := svc.List(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := catalogItemPage{Items: make([]catalogItemDTO, 0, len(list))}
		for i := range list {
			page.Items = append(page.Items, toCatalogItemDTO(&list[i]))
		}
		page.NextCursor = nextCursor(list, more, func(item models.CatalogItem) pagination.Cursor {
			return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
		})
		responses.WriteSuccess(w, page)
	}
}

func queryFlag(r *http.Request, key string) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get(key)), "true")
}
