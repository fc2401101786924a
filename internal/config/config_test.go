package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.Agent.Mode != "auto" {
		t.Errorf("default agent mode = %q, expected auto", cfg.Agent.Mode)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: "9090"
  mode: release
database:
  driver: postgres
  dsn: "host=db user=app dbname=costs"
agent:
  mode: simulate
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, expected postgres", cfg.Database.Driver)
	}
	if cfg.Agent.Mode != "simulate" {
		t.Errorf("agent mode = %q, expected simulate", cfg.Agent.Mode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, expected debug", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("AGENT_MODE", "sdk")
	t.Setenv("STRIPE_API_KEY", "sk_test_abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, expected env override 7070", cfg.Server.Port)
	}
	if cfg.Agent.Mode != "sdk" {
		t.Errorf("agent mode = %q, expected env override sdk", cfg.Agent.Mode)
	}
	if cfg.Stripe.APIKey != "sk_test_abc" {
		t.Errorf("stripe key = %q, expected env override", cfg.Stripe.APIKey)
	}
}

func TestLoad_RedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:secret@cache.internal:6380/2")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Error("REDIS_URL should enable redis")
	}
	if cfg.Redis.Addr != "cache.internal:6380" {
		t.Errorf("addr = %q, expected cache.internal:6380", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "secret" {
		t.Errorf("password = %q, expected secret", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("db = %d, expected 2", cfg.Redis.DB)
	}
}
