package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/pricing"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type createPricingRuleRequest struct {
	CatalogItemID uuid.UUID       `json:"catalog_item_id" validate:"required"`
	BranchID      uuid.UUID       `json:"branch_id" validate:"required"`
	PricingType   string          `json:"pricing_type" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	Status        *string         `json:"status"`
	Description   *string         `json:"description"`
}

type updatePricingRuleRequest struct {
	Price       *decimal.Decimal `json:"price"`
	Status      *string          `json:"status"`
	Description *string          `json:"description"`
}

func PricingRuleCreate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var req createPricingRuleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pricingType, err := enums.ParsePricingType(req.PricingType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown pricing type"))
			return
		}

		var status *enums.ActivationStatus
		if req.Status != nil {
			parsed, err := enums.ParseActivationStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			status = &parsed
		}

		rule, err := svc.CreateRule(r.Context(), principal, pricing.CreateRuleInput{
			CatalogItemID: req.CatalogItemID,
			BranchID:      req.BranchID,
			PricingType:   pricingType,
			Price:         req.Price,
			Status:        status,
			Description:   req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toPricingRuleDTO(rule))
	}
}

func PricingRuleUpdate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		ruleID, err := parseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePricingRuleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := pricing.UpdateRuleInput{
			Price:       req.Price,
			Description: req.Description,
		}
		if req.Status != nil {
			status, err := enums.ParseActivationStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown status"))
				return
			}
			input.Status = &status
		}

		rule, err := svc.UpdateRule(r.Context(), principal, ruleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPricingRuleDTO(rule))
	}
}

func PricingRuleDelete(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		ruleID, err := parseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteRule(r.Context(), principal, ruleID)
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

func PricingRuleDetail(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		ruleID, err := parseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.GetRule(r.Context(), principal, ruleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPricingRuleDTO(rule))
	}
}

func PricingRuleList(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
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

		page := pricingRulePage{Rules: make([]pricingRuleDTO, 0, len(list))}
		for i := range list {
			page.Rules = append(page.Rules, toPricingRuleDTO(&list[i]))
		}
		page.NextCursor = nextCursor(list, more, func(rule models.PricingRule) pagination.Cursor {
			return pagination.Cursor{CreatedAt: rule.CreatedAt, ID: rule.ID}
		})
		responses.WriteSuccess(w, page)
	}
}

// PricingResolve previews the effective price for an item at a branch.
func PricingResolve(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		itemID, err := validators.ParseQueryUUID(r, "catalog_item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if itemID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "catalog_item_id query parameter is required"))
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

		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ResolvePricing(r.Context(), principal, pricing.ResolveInput{
			CatalogItemID: *itemID,
			BranchID:      *branchID,
			Quantity:      quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toResolutionDTO(result))
	}
}
