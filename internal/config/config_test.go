package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.SMSEnabled {
		t.Error("expected SMS disabled by default")
	}
	if cfg.NotifyTimeout != 5*time.Second {
		t.Errorf("expected default notify timeout 5s, got %s", cfg.NotifyTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if !cfg.SMSEnabled {
		t.Error("expected SMS enabled")
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected session TTL 1h, got %s", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsBoolMalformed(t *testing.T) {
	t.Setenv("SMS_ENABLED", "definitely")
	cfg := Load()
	if cfg.SMSEnabled {
		t.Error("malformed boolean should fall back to default")
	}
}
