package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/gowebsite/internal/pkg/logger"
)

// Service implements the slug registry. The application-level holder check
// is a fast path for a friendly error; the storage layer's uniqueness
// constraint is the final arbiter under concurrency, and a constraint
// violation from the write surfaces as ErrSlugTaken.
type Service struct {
	repo       Repository
	rootDomain string
}

// NewService creates a slug registry backed by the given repository.
// rootDomain is used to derive preview/published URLs from slugs.
func NewService(repo Repository, rootDomain string) *Service {
	return &Service{repo: repo, rootDomain: rootDomain}
}

// Normalize converts raw user input into a valid slug: lower-case, runs of
// anything outside [a-z0-9] collapse to a single hyphen, leading/trailing
// hyphens are trimmed. Returns ErrInvalidSlug when nothing survives.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	s := b.String()
	if s == "" {
		return "", ErrInvalidSlug
	}
	return s, nil
}

// SiteURL returns the canonical https URL a slug publishes under.
func (s *Service) SiteURL(slug string) string {
	return "https://" + slug + "." + s.rootDomain
}

// Reserve normalizes raw and writes the resulting slug onto the project.
// It does not touch the publish flag: holding a slug and being live are
// independent. Re-reserving a project's own current slug is idempotent.
// Returns the normalized slug on success.
func (s *Service) Reserve(ctx context.Context, projectID, ownerID, raw string) (string, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	// Fast-path check so the common conflict gets a clean error without
	// burning a write. The unique constraint still guards the race.
	holder, err := s.repo.HolderOf(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("check slug holder: %w", err)
	}
	if holder != "" && holder != projectID {
		return "", ErrSlugTaken
	}

	if err := s.repo.Reserve(ctx, projectID, ownerID, normalized, s.SiteURL(normalized)); err != nil {
		return "", err
	}

	logger.Info("slug reserved", "project_id", projectID, "slug", normalized)
	return normalized, nil
}
