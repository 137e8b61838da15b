package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Platform.RootDomain != "gowebsite.io" {
		t.Errorf("root domain default = %q", cfg.Platform.RootDomain)
	}
	if cfg.Platform.AdminSubdomain != "admin" {
		t.Errorf("admin subdomain default = %q", cfg.Platform.AdminSubdomain)
	}
	if cfg.Auth.CookieName != "gw_session" {
		t.Errorf("cookie name default = %q", cfg.Auth.CookieName)
	}
	if cfg.Auth.CookieMaxAge != 86400 {
		t.Errorf("cookie max age default = %d", cfg.Auth.CookieMaxAge)
	}
	if len(cfg.Platform.AllowedOrigins) == 0 {
		t.Error("allowed origins default missing")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "platform:\n  root_domain: example.test\n")

	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://env-db/app")
	t.Setenv("REDIS_URL", "redis://env-redis:6379")
	t.Setenv("PLATFORM_ROOT_DOMAIN", "override.test")
	t.Setenv("PLATFORM_ALLOWED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")

	cfg, err := LoadFromEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://env-db/app" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Redis.URL != "redis://env-redis:6379" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
	if cfg.Platform.RootDomain != "override.test" {
		t.Errorf("root domain = %q, want env override", cfg.Platform.RootDomain)
	}
	if len(cfg.Platform.AllowedOrigins) != 2 || cfg.Platform.AllowedOrigins[1] != "https://b.test" {
		t.Errorf("allowed origins = %v", cfg.Platform.AllowedOrigins)
	}
	if !cfg.Auth.Enabled {
		t.Error("GOOGLE_CLIENT_ID must enable auth")
	}
}

func TestLoadFromEnvMissingFile(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be fatal: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port default = %d", cfg.Server.Port)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("PORT", "not-a-port")

	if _, err := LoadFromEnv(path); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}
