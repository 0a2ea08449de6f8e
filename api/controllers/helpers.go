package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/api/middleware"
	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/authz"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// requirePrincipal writes a 401 and returns false when Auth did not run.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (authz.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return authz.Principal{}, false
	}
	return principal, true
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid path parameter").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
