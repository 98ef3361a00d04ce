package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("STORE_BACKEND", "")

	cfg := Load()
	if cfg.JWT.Expiration != 24*time.Hour || cfg.JWT.SessionTimeout != 24*time.Hour {
		t.Errorf("unexpected JWT durations: %+v", cfg.JWT)
	}
	if cfg.Storage.Backend != "json" || cfg.Storage.BackupKeep != 10 {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.RateLimit.LoginAttempts != 5 || cfg.RateLimit.LoginWindow != 15*time.Minute {
		t.Errorf("unexpected login limit: %+v", cfg.RateLimit)
	}
	if !cfg.Orders.StrictTransitions || cfg.Orders.CancelWindow != 0 {
		t.Errorf("unexpected order defaults: %+v", cfg.Orders)
	}
	if cfg.Cookie.Name != "admin-token" || cfg.Cookie.Secure {
		t.Errorf("unexpected cookie defaults: %+v", cfg.Cookie)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("development defaults should validate: %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30m": 30 * time.Minute,
		"7d":  7 * 24 * time.Hour,
		"60":  60 * time.Second,
		"bad": time.Minute,
	}
	for in, want := range cases {
		if got := parseDuration(in, time.Minute); got != want {
			t.Errorf("parseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseStringSlice(t *testing.T) {
	got := parseStringSlice(" shop.example.com, ,admin.example.com:8443,")
	want := []string{"shop.example.com", "admin.example.com:8443"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("parseStringSlice = %q, want %q", got, want)
	}
	if parseStringSlice("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestValidateProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("CSRF_KEY", "")

	err := Load().Validate()
	if err == nil {
		t.Fatal("expected production validation to fail")
	}
	for _, want := range []string{"JWT_SECRET", "ADMIN_PASSWORD_HASH", "CSRF_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateRejectsPlaintextHash(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "admin123")
	if err := Load().Validate(); err == nil || !strings.Contains(err.Error(), "bcrypt") {
		t.Fatalf("expected bcrypt error, got %v", err)
	}
}

func TestValidateBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	if err := Load().Validate(); err == nil {
		t.Fatal("expected unknown backend error")
	}
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	if err := Load().Validate(); err == nil || !strings.Contains(err.Error(), "FIREBASE_PROJECT_ID") {
		t.Fatalf("expected firebase project error, got %v", err)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")
	cfg := Load()
	if strings.Join(cfg.Server.TrustedProxies, "|") != "10.0.0.0/8|192.0.2.10" {
		t.Errorf("TrustedProxies = %q", cfg.Server.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "")
	if got := Load().Server.TrustedProxies; got != nil {
		t.Errorf("default TrustedProxies = %q, want none", got)
	}
}
