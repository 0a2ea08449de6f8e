package middleware

import (
	"context"

	"github.com/servicelane/servicelane-backend/internal/authz"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated principal seeded by Auth.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	if ctx == nil {
		return authz.Principal{}, false
	}
	if v, ok := ctx.Value(ctxPrincipal).(authz.Principal); ok {
		return v, true
	}
	return authz.Principal{}, false
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, principal authz.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}
