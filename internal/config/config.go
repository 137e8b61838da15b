package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the platform.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Platform PlatformConfig `yaml:"platform"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis connection settings. Redis is optional; when no
// URL is configured the quota ledger falls back to the Postgres usage store.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// PlatformConfig holds the hostname-routing settings for the tenant router.
type PlatformConfig struct {
	// RootDomain is the apex domain all tenant subdomains hang off,
	// e.g. "gowebsite.io".
	RootDomain string `yaml:"root_domain"`
	// AdminSubdomain is the reserved subdomain for the admin surface.
	AdminSubdomain string `yaml:"admin_subdomain"`
	// DevHost is the loopback development alias that bypasses tenant
	// routing entirely, e.g. "localhost".
	DevHost string `yaml:"dev_host"`
	// AllowedOrigins are the CORS origins allowed to send credentials.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig holds Google OAuth authentication configuration.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Platform.RootDomain == "" {
		cfg.Platform.RootDomain = "gowebsite.io"
	}
	if cfg.Platform.AdminSubdomain == "" {
		cfg.Platform.AdminSubdomain = "admin"
	}
	if cfg.Platform.DevHost == "" {
		cfg.Platform.DevHost = "localhost"
	}
	if len(cfg.Platform.AllowedOrigins) == 0 {
		cfg.Platform.AllowedOrigins = []string{
			"https://" + cfg.Platform.RootDomain,
			"https://app." + cfg.Platform.RootDomain,
			"http://localhost:5173",
			"http://localhost:8080",
		}
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "gw_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		// A missing config file is not fatal; env vars can carry everything.
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PLATFORM_ROOT_DOMAIN"); v != "" {
		cfg.Platform.RootDomain = v
	}
	if v := os.Getenv("PLATFORM_ADMIN_SUBDOMAIN"); v != "" {
		cfg.Platform.AdminSubdomain = v
	}
	if v := os.Getenv("PLATFORM_DEV_HOST"); v != "" {
		cfg.Platform.DevHost = v
	}
	if v := os.Getenv("PLATFORM_ALLOWED_ORIGINS"); v != "" {
		cfg.Platform.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
