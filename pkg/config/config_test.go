package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNKeepsExplicitDSN(t *testing.T) {
	db := DBConfig{DSN: "postgres://u:p@localhost:5432/servicelane"}
	if err := db.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if db.DSN != "postgres://u:p@localhost:5432/servicelane" {
		t.Fatalf("DSN was rewritten: %s", db.DSN)
	}
}

func TestEnsureDSNBuildsFromLegacyParts(t *testing.T) {
	db := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5433,
		LegacyUser:     "svc",
		LegacyPassword: "secret",
		LegacyName:     "servicelane",
		LegacySSLMode:  "require",
	}
	if err := db.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	for _, want := range []string{"db.internal:5433", "svc:secret", "servicelane", "sslmode=require"} {
		if !strings.Contains(db.DSN, want) {
			t.Fatalf("expected DSN to contain %q, got %s", want, db.DSN)
		}
	}
}

func TestEnsureDSNReportsMissingLegacyParts(t *testing.T) {
	db := DBConfig{LegacyHost: "db.internal"}
	err := db.ensureDSN()
	if err == nil {
		t.Fatal("expected error for missing legacy settings")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("expected missing vars named in error, got %v", err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Fatal("expected IsDev for Dev")
	}
	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Fatal("expected IsProd for PROD")
	}
	if (AppConfig{Env: "staging"}).IsDev() {
		t.Fatal("staging must not be dev")
	}
}
