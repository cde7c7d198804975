package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOPPR_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.HopprBaseURL != "https://api.hoppr.ai" {
		t.Errorf("unexpected base URL: %s", cfg.HopprBaseURL)
	}
	if cfg.HopprOrganization != "hoppr" {
		t.Errorf("unexpected organization: %s", cfg.HopprOrganization)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with API key set: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOPPR_API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("HOPPR_TIMEOUT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("expected IsDev() false for ENV=production")
	}
	if got := cfg.HopprTimeout(); got != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", got)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := &Config{HopprBaseURL: "https://api.hoppr.ai", MaxUploadMB: 64}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing HOPPR_API_KEY")
	}
}

func TestHopprTimeout_ZeroDisables(t *testing.T) {
	cfg := &Config{HopprTimeoutSecs: 0}
	if got := cfg.HopprTimeout(); got >= 0 {
		t.Errorf("HOPPR_TIMEOUT=0 should report the disabled sentinel, got %v", got)
	}
	cfg.HopprTimeoutSecs = 30
	if got := cfg.HopprTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", got)
	}
}
