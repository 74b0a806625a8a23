package config

import (
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.HTTP.Server.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.HTTP.Server.Port, "3000")
	}
	if cfg.HTTP.ProxyPrefix != "/api/v1/proxy" {
		t.Errorf("ProxyPrefix = %q, want %q", cfg.HTTP.ProxyPrefix, "/api/v1/proxy")
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want %q", cfg.Session.Store, "memory")
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 30s", cfg.Upstream.Timeout)
	}
	if cfg.Logger.Format != "console" {
		t.Errorf("Logger.Format = %q, want %q", cfg.Logger.Format, "console")
	}
	if len(cfg.Credentials.Scopes) != 1 {
		t.Errorf("Credentials.Scopes = %v, want one default scope", cfg.Credentials.Scopes)
	}
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "8080")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_SWEEP_INTERVAL", "0s")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.HTTP.Server.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.HTTP.Server.Port, "8080")
	}
	if cfg.Session.Store != "redis" {
		t.Errorf("Session.Store = %q, want %q", cfg.Session.Store, "redis")
	}
	if cfg.Session.SweepInterval != 0 {
		t.Errorf("Session.SweepInterval = %v, want 0", cfg.Session.SweepInterval)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "redis:6379")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("CORS.AllowedOrigins = %v, want 2 entries", cfg.CORS.AllowedOrigins)
	}
}
