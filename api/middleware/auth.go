package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/internal/authz"
	pkgAuth "github.com/servicelane/servicelane-backend/pkg/auth"
	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// authenticated principal. Role and branch claims are validated into the
// closed enums here so downstream code never sees raw strings.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.UserID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing subject"))
				return
			}

			roles := make([]enums.Role, 0, len(claims.Roles))
			for _, raw := range claims.Roles {
				role, err := enums.ParseRole(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role claim"))
					return
				}
				roles = append(roles, role)
			}
			if len(roles) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "no roles assigned"))
				return
			}

			branchIDs := make([]uuid.UUID, 0, len(claims.BranchIDs))
			for _, raw := range claims.BranchIDs {
				branchID, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid branch claim"))
					return
				}
				branchIDs = append(branchIDs, branchID)
			}

			principal := authz.NewPrincipal(claims.UserID, roles, branchIDs)
			ctx := WithPrincipal(r.Context(), principal)

			if logg != nil {
				ctx = logg.WithActorID(ctx, claims.UserID.String())
				ctx = logg.WithActorRoles(ctx, claims.Roles)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
