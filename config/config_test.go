package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH_CLIENT_ID", "client-id")
	t.Setenv("AUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("SESSION_SECRET", "session-secret")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Domain != "example.auth0.com" {
		t.Errorf("expected domain %q, got %q", "example.auth0.com", cfg.Domain)
	}
	if cfg.BaseURL != "http://localhost:3000" {
		t.Errorf("expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Port)
	}
	if cfg.SessionExpirationDays != 30 {
		t.Errorf("expected default expiration of 30 days, got %d", cfg.SessionExpirationDays)
	}
	if cfg.CallbackURL() != "http://localhost:3000/callback" {
		t.Errorf("unexpected callback URL %q", cfg.CallbackURL())
	}
	if cfg.IsProd() {
		t.Error("default env should not be prod")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("AUTH_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH_CLIENT_ID", "")
	t.Setenv("AUTH_CLIENT_SECRET", "")
	t.Setenv("SESSION_SECRET", "secret")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	if !strings.Contains(err.Error(), "AUTH_CLIENT_ID") || !strings.Contains(err.Error(), "AUTH_CLIENT_SECRET") {
		t.Errorf("error should name every missing variable, got: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "8080")
	t.Setenv("BASE_URL", "https://gateway.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProd() {
		t.Error("expected prod environment")
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.CallbackURL() != "https://gateway.example.com/callback" {
		t.Errorf("unexpected callback URL %q", cfg.CallbackURL())
	}
}
