package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/gowebsite/internal/api"
	"github.com/ignite/gowebsite/internal/auth"
	"github.com/ignite/gowebsite/internal/config"
	"github.com/ignite/gowebsite/internal/repository/postgres"
	"github.com/ignite/gowebsite/internal/service/publication"
	"github.com/ignite/gowebsite/internal/service/quota"
	"github.com/ignite/gowebsite/internal/service/slug"
	"github.com/ignite/gowebsite/internal/tenant"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("GoWebsite platform server starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dbURL := cfg.Database.URL
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
	}
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dbURL))

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	pingCancel()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	log.Println("Connected to PostgreSQL")

	// Repositories
	projects := postgres.NewProjectRepo(db)
	profiles := postgres.NewProfileRepo(db)
	activity := postgres.NewActivityRepo(db)

	// Quota counters live in Redis when configured; otherwise the
	// usage table carries them with the same atomicity guarantees.
	var store quota.Store
	var redisStore *quota.RedisStore
	if cfg.Redis.URL != "" {
		redisStore, err = quota.NewRedisStoreFromURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to Postgres counters", cfg.Redis.URL, err)
		} else {
			store = redisStore
			defer redisStore.Close()
			log.Println("Quota counters: Redis")
		}
	}
	if store == nil {
		store = postgres.NewUsageStore(db)
		log.Println("Quota counters: PostgreSQL")
	}

	// Services
	slugSvc := slug.NewService(projects, cfg.Platform.RootDomain)
	ledger := quota.NewLedger(quota.DefaultLimits, store)
	pubSvc := publication.NewService(projects, profiles, ledger, slugSvc, activity)

	resolver := tenant.NewResolver(cfg.Platform.RootDomain, cfg.Platform.DevHost, cfg.Platform.AdminSubdomain)

	// Authentication
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" {
			baseURL = "https://app." + cfg.Platform.RootDomain
		}
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}

		authManager = auth.NewManager(&cfg.Auth, profiles, baseURL)
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled (callback: %s/auth/callback)", baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	handlers := api.NewHandlers(pubSvc, ledger, profiles, projects, db)
	server := api.NewServer(cfg.Server, cfg.Platform, handlers, resolver, authManager)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s (root domain: %s)", addr, cfg.Platform.RootDomain)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
