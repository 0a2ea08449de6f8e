package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/internal/authz"
	pkgAuth "github.com/servicelane/servicelane-backend/pkg/auth"
	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, roles []string, branchIDs []string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), uuid.New(), roles, branchIDs)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsUnknownRoleClaim(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, []string{"janitor"}, nil)

	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown role got %d", resp.Code)
	}
}

func TestAuthSeedsPrincipal(t *testing.T) {
	cfg := testJWTConfig()
	branchID := uuid.New()
	token := mintTestToken(t, cfg, []string{string(enums.RolePointOfContact)}, []string{branchID.String()})

	var captured authz.Principal
	var found bool
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, found = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !found {
		t.Fatal("expected principal in context")
	}
	if !captured.HasRole(enums.RolePointOfContact) {
		t.Fatal("expected POC role on principal")
	}
	if !captured.CanAccessBranch(branchID) {
		t.Fatal("expected branch assignment on principal")
	}
	if captured.CanAccessBranch(uuid.New()) {
		t.Fatal("principal must not reach unassigned branches")
	}
}

func TestRequireHeadManager(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireHeadManager(nil)(next)

	hm := authz.NewPrincipal(uuid.New(), []enums.Role{enums.RoleHeadManager}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), hm))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for head manager got %d", resp.Code)
	}

	tech := authz.NewPrincipal(uuid.New(), []enums.Role{enums.RoleTechnician}, nil)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), tech))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for technician got %d", resp.Code)
	}
}
