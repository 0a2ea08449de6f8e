package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "servicelane-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	branch := uuid.NewString()

	token, err := MintAccessToken(cfg, time.Now(), userID, []string{"POC", "T"}, []string{branch})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s got %s", userID, claims.UserID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "POC" {
		t.Fatalf("unexpected roles %v", claims.Roles)
	}
	if len(claims.BranchIDs) != 1 || claims.BranchIDs[0] != branch {
		t.Fatalf("unexpected branch ids %v", claims.BranchIDs)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), uuid.New(), []string{"HM"}, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	bad := cfg
	bad.Secret = "other-secret"
	if _, err := ParseAccessToken(bad, token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), uuid.New(), []string{"R"}, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestMintRequiresRoles(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), uuid.New(), nil, nil); err == nil {
		t.Fatal("expected error without roles")
	}
}
