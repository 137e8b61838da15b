package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/pkg/httputil"
	"github.com/ignite/gowebsite/internal/service/publication"
	"github.com/ignite/gowebsite/internal/service/quota"
	"github.com/ignite/gowebsite/internal/service/slug"
)

// ProjectDirectory is the read side handlers need beyond the publication
// service: listing a user's projects and resolving a live slug.
type ProjectDirectory interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	pubs     *publication.Service
	ledger   *quota.Ledger
	profiles publication.Profiles
	projects ProjectDirectory
	db       *sql.DB
	started  time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(pubs *publication.Service, ledger *quota.Ledger, profiles publication.Profiles, projects ProjectDirectory, db *sql.DB) *Handlers {
	return &Handlers{
		pubs:     pubs,
		ledger:   ledger,
		profiles: profiles,
		projects: projects,
		db:       db,
		started:  time.Now(),
	}
}

// HealthCheck reports service liveness and database reachability.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	}

	httputil.OK(w, map[string]any{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

// ListProjects returns the caller's projects.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	projects, err := h.projects.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	httputil.OK(w, map[string]any{"projects": projects})
}

type publishRequest struct {
	ProjectID string `json:"project_id"`
}

// PublishProject takes a project live on its reserved slug.
func (h *Handlers) PublishProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	var req publishRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" {
		httputil.BadRequest(w, "project_id is required")
		return
	}

	url, err := h.pubs.Publish(r.Context(), req.ProjectID, id.actor())
	if err != nil {
		writePublicationError(w, err)
		return
	}

	httputil.OK(w, map[string]any{"ok": true, "url": url})
}

// UnpublishProject takes a project offline and releases its slug.
func (h *Handlers) UnpublishProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	var req publishRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" {
		httputil.BadRequest(w, "project_id is required")
		return
	}

	if err := h.pubs.Unpublish(r.Context(), req.ProjectID, id.actor()); err != nil {
		writePublicationError(w, err)
		return
	}

	httputil.OK(w, map[string]any{"ok": true})
}

type changeSlugRequest struct {
	ProjectID string `json:"project_id"`
	Slug      string `json:"slug"`
}

// ChangeSlug reserves a new address for the project.
func (h *Handlers) ChangeSlug(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	var req changeSlugRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" {
		httputil.BadRequest(w, "project_id is required")
		return
	}

	normalized, previewURL, err := h.pubs.ChangeSlug(r.Context(), req.ProjectID, id.actor(), req.Slug)
	if err != nil {
		writePublicationError(w, err)
		return
	}

	httputil.OK(w, map[string]any{
		"success":     true,
		"slug":        normalized,
		"preview_url": previewURL,
	})
}

// GetUsage reports the caller's quota state for one usage key without
// charging anything.
func (h *Handlers) GetUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required")
		return
	}

	key := domain.UsageKey(r.URL.Query().Get("key"))
	if key == "" {
		httputil.BadRequest(w, "key is required")
		return
	}
	projectID := r.URL.Query().Get("project_id")

	prof, err := h.profiles.Get(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, publication.ErrNotFound) {
			httputil.NotFound(w, "profile not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	usage, err := h.ledger.CheckUsage(r.Context(), id.UserID, projectID, key, prof.Plan, prof.CurrentPeriodEnd)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, usage)
}

// ServeSite renders a published site by slug. Tenant subdomain requests
// arrive here via the resolver rewrite.
func (h *Handlers) ServeSite(w http.ResponseWriter, r *http.Request) {
	s := strings.ToLower(chi.URLParam(r, "slug"))

	p, err := h.projects.GetBySlug(r.Context(), s)
	if err != nil {
		if errors.Is(err, publication.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		httputil.InternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1></body></html>",
		html.EscapeString(p.Name), html.EscapeString(p.Name))
}

// writePublicationError maps service errors onto the API error envelope.
// Storage failures come back as a generic 500; details go to the log only.
func writePublicationError(w http.ResponseWriter, err error) {
	var quotaErr *quota.QuotaExceededError
	switch {
	case errors.Is(err, slug.ErrInvalidSlug):
		httputil.BadRequest(w, "slug must contain at least one letter or digit")
	case errors.Is(err, slug.ErrSlugTaken):
		httputil.Conflict(w, "slug is already taken")
	case errors.Is(err, publication.ErrForbidden):
		httputil.Forbidden(w, "not allowed")
	case errors.Is(err, publication.ErrNoSlug):
		httputil.BadRequest(w, "project has no reserved slug")
	case errors.Is(err, publication.ErrNotFound), errors.Is(err, slug.ErrNotFound):
		httputil.NotFound(w, "project not found")
	case errors.As(err, &quotaErr):
		httputil.ErrorCode(w, http.StatusForbidden, "plan limit reached", "quota_exceeded", map[string]int{
			"limit": quotaErr.Limit,
			"used":  quotaErr.Used,
		})
	default:
		httputil.InternalError(w, err)
	}
}
