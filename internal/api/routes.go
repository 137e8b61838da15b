package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/gowebsite/internal/auth"
	"github.com/ignite/gowebsite/internal/config"
	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/tenant"
)

// SetupRoutes configures all routes. The tenant resolver runs before
// routing so that subdomain requests are rewritten onto /site/{slug}
// and matched by the same mux.
func SetupRoutes(h *Handlers, resolver *tenant.Resolver, platform config.PlatformConfig, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if resolver != nil {
		r.Use(resolver.Middleware)
	}

	// CORS - allow credentials for auth cookies (explicit origins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   platform.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// Published site rendering (tenant subdomains land here after the
	// resolver rewrite; path access works too).
	r.Get("/site/{slug}", h.ServeSite)
	r.Get("/site/{slug}/*", h.ServeSite)

	// API routes (protected by auth middleware)
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSession(authManager, devMode))

		r.Get("/projects", h.ListProjects)
		r.Post("/projects/publish", h.PublishProject)
		r.Post("/projects/unpublish", h.UnpublishProject)
		r.Post("/projects/slug", h.ChangeSlug)
		r.Get("/usage", h.GetUsage)
	})

	return r
}

// requireSession rejects unauthenticated /api requests with a JSON 401
// and attaches the session identity to the request context. In dev mode a
// request without a session gets a synthetic admin identity instead of a
// rejection; real sessions still win when present.
func requireSession(authManager *auth.Manager, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var session *auth.Session
			if authManager != nil {
				session = authManager.GetSession(req)
			}
			if session == nil {
				if !devMode {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte(`{"error":"unauthorized"}`))
					return
				}
				session = &auth.Session{UserID: "dev", Email: "dev@localhost", Role: domain.RoleAdmin}
			}
			next.ServeHTTP(w, req.WithContext(withIdentity(req.Context(), session)))
		})
	}
}
