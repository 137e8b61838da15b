package publication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/pkg/logger"
	"github.com/ignite/gowebsite/internal/service/quota"
)

// Ledger is the quota contract the state machine needs: admission at
// publish time and a refund when the write fails after admission.
// *quota.Ledger satisfies it.
type Ledger interface {
	Acquire(ctx context.Context, userID, projectID string, key domain.UsageKey, plan domain.Plan, periodEnd time.Time) (quota.Usage, error)
	Release(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time)
}

// SlugRegistry is the slice of the slug service ChangeSlug delegates to.
type SlugRegistry interface {
	Reserve(ctx context.Context, projectID, ownerID, raw string) (string, error)
	SiteURL(slug string) string
}

// Service implements the publication state machine. All public methods
// are safe for concurrent use if the underlying repository is.
type Service struct {
	repo     Repository
	profiles Profiles
	ledger   Ledger
	slugs    SlugRegistry
	activity ActivitySink
	now      func() time.Time
}

// NewService creates a publication service over the given collaborators.
func NewService(repo Repository, profiles Profiles, ledger Ledger, slugs SlugRegistry, activity ActivitySink) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		ledger:   ledger,
		slugs:    slugs,
		activity: activity,
		now:      time.Now,
	}
}

// Publish transitions a project to published. Preconditions: the actor is
// the owner or an admin, the project holds a reserved slug, and the
// owner's plan permits one more published site. The quota unit is acquired
// atomically before the row update; if the update then fails the unit is
// refunded, so a failed publish is never charged. Publishing an
// already-published project is a no-op returning the live URL.
func (s *Service) Publish(ctx context.Context, projectID string, actor Actor) (string, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return "", err
	}
	if !Can(actor, p.OwnerID, TransitionPublish) {
		return "", ErrForbidden
	}
	if p.IsPublished && p.PublishedURL != nil {
		return *p.PublishedURL, nil
	}
	if !p.HasSlug() {
		return "", ErrNoSlug
	}

	prof, err := s.profiles.Get(ctx, p.OwnerID)
	if err != nil {
		return "", fmt.Errorf("load owner profile: %w", err)
	}

	if _, err := s.ledger.Acquire(ctx, p.OwnerID, "", domain.UsageWebsitesPublished, prof.Plan, prof.CurrentPeriodEnd); err != nil {
		return "", err
	}

	url := s.slugs.SiteURL(*p.Slug)
	if err := s.repo.MarkPublished(ctx, projectID, url, s.now()); err != nil {
		s.ledger.Release(ctx, p.OwnerID, "", domain.UsageWebsitesPublished, prof.CurrentPeriodEnd)
		return "", err
	}

	s.record(ctx, actor, projectID, "project.published", *p.Slug)
	logger.Info("project published", "project_id", projectID, "slug", *p.Slug)
	return url, nil
}

// Unpublish takes a project offline. This is an administrative override:
// ownership is not sufficient. The slug, published URL and timestamp are
// cleared together with the flag — the slug is released back to the
// registry, and going live again requires reserving a slug and publishing
// from scratch.
func (s *Service) Unpublish(ctx context.Context, projectID string, actor Actor) error {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if !Can(actor, p.OwnerID, TransitionUnpublish) {
		return ErrForbidden
	}

	if err := s.repo.ClearPublication(ctx, projectID); err != nil {
		return err
	}

	detail := ""
	if p.Slug != nil {
		detail = *p.Slug
	}
	s.record(ctx, actor, projectID, "project.unpublished", detail)
	logger.Info("project unpublished", "project_id", projectID, "admin_id", actor.UserID)
	return nil
}

// ChangeSlug reserves a new slug for the project without altering its
// publish state. If the project is live, the repository refreshes the
// published URL in the same conditional update, so the site never serves
// under a stale slug. Returns the normalized slug and its preview URL.
func (s *Service) ChangeSlug(ctx context.Context, projectID string, actor Actor, raw string) (string, string, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return "", "", err
	}
	if !Can(actor, p.OwnerID, TransitionChangeSlug) {
		return "", "", ErrForbidden
	}

	normalized, err := s.slugs.Reserve(ctx, projectID, p.OwnerID, raw)
	if err != nil {
		return "", "", err
	}

	s.record(ctx, actor, projectID, "project.slug_changed", normalized)
	return normalized, s.slugs.SiteURL(normalized), nil
}

func (s *Service) record(ctx context.Context, actor Actor, projectID, action, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, domain.ActivityEntry{
		ID:        uuid.New().String(),
		ActorID:   actor.UserID,
		ProjectID: projectID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.now(),
	})
}
