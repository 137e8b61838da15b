package publication_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/service/publication"
	"github.com/ignite/gowebsite/internal/service/quota"
)

// memRepo is an in-memory project repository for unit testing.
type memRepo struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
	failMark bool // force MarkPublished to fail
}

func newMemRepo() *memRepo { return &memRepo{projects: make(map[string]*domain.Project)} }

func (m *memRepo) add(p *domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, publication.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) MarkPublished(_ context.Context, id, url string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark {
		return fmt.Errorf("storage blew up")
	}
	p, ok := m.projects[id]
	if !ok {
		return publication.ErrNotFound
	}
	if p.Slug == nil || *p.Slug == "" {
		return publication.ErrNoSlug
	}
	p.IsPublished = true
	p.PublishedURL = &url
	p.PublishedAt = &at
	p.UpdatedAt = at
	return nil
}

func (m *memRepo) ClearPublication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return publication.ErrNotFound
	}
	p.IsPublished = false
	p.Slug = nil
	p.PublishedURL = nil
	p.PublishedAt = nil
	return nil
}

type memProfiles struct{ profiles map[string]*domain.Profile }

func (m *memProfiles) Get(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, publication.ErrNotFound
	}
	return p, nil
}

// fakeLedger counts acquires/releases and denies above a fixed limit.
type fakeLedger struct {
	mu       sync.Mutex
	limit    int
	acquired int
	released int
}

func (f *fakeLedger) Acquire(_ context.Context, _, _ string, key domain.UsageKey, _ domain.Plan, _ time.Time) (quota.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquired-f.released >= f.limit {
		return quota.Usage{Used: f.acquired, Limit: f.limit},
			&quota.QuotaExceededError{Key: key, Limit: f.limit, Used: f.acquired - f.released}
	}
	f.acquired++
	return quota.Usage{Used: f.acquired, Limit: f.limit}, nil
}

func (f *fakeLedger) Release(_ context.Context, _, _ string, _ domain.UsageKey, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

// fakeSlugs records reservations and never conflicts.
type fakeSlugs struct{ reserved map[string]string }

func (f *fakeSlugs) Reserve(_ context.Context, projectID, _, raw string) (string, error) {
	if f.reserved == nil {
		f.reserved = make(map[string]string)
	}
	f.reserved[projectID] = raw
	return raw, nil
}

func (f *fakeSlugs) SiteURL(s string) string { return "https://" + s + ".gowebsite.io" }

type memSink struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (m *memSink) Record(_ context.Context, e domain.ActivityEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func strptr(s string) *string { return &s }

const (
	ownerID = "user-1"
	adminID = "admin-1"
)

func newFixture(limit int) (*memRepo, *fakeLedger, *memSink, *publication.Service) {
	repo := newMemRepo()
	profiles := &memProfiles{profiles: map[string]*domain.Profile{
		ownerID: {ID: ownerID, Role: domain.RoleUser, Plan: domain.PlanFree,
			CurrentPeriodEnd: time.Now().Add(10 * 24 * time.Hour)},
	}}
	ledger := &fakeLedger{limit: limit}
	sink := &memSink{}
	svc := publication.NewService(repo, profiles, ledger, &fakeSlugs{}, sink)
	return repo, ledger, sink, svc
}

var (
	owner = publication.Actor{UserID: ownerID, Role: domain.RoleUser}
	admin = publication.Actor{UserID: adminID, Role: domain.RoleAdmin}
)

func TestPublish(t *testing.T) {
	repo, ledger, sink, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})

	url, err := svc.Publish(context.Background(), "p1", owner)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://my-site.gowebsite.io" {
		t.Fatalf("url = %q", url)
	}

	p, _ := repo.Get(context.Background(), "p1")
	if !p.IsPublished || p.PublishedURL == nil || p.PublishedAt == nil {
		t.Fatalf("published project missing fields: %+v", p)
	}
	if ledger.acquired != 1 {
		t.Fatalf("quota acquires = %d, want 1", ledger.acquired)
	}
	if len(sink.entries) != 1 || sink.entries[0].Action != "project.published" {
		t.Fatalf("activity entries = %+v", sink.entries)
	}
}

func TestPublishByAdmin(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})

	if _, err := svc.Publish(context.Background(), "p1", admin); err != nil {
		t.Fatalf("admin publish must be allowed: %v", err)
	}
}

func TestPublishForbidden(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})

	stranger := publication.Actor{UserID: "user-2", Role: domain.RoleUser}
	if _, err := svc.Publish(context.Background(), "p1", stranger); err != publication.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPublishWithoutSlug(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID})

	if _, err := svc.Publish(context.Background(), "p1", owner); err != publication.ErrNoSlug {
		t.Fatalf("expected ErrNoSlug, got %v", err)
	}
}

func TestPublishQuotaExceeded(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("site-one")})
	repo.add(&domain.Project{ID: "p2", OwnerID: ownerID, Slug: strptr("site-two")})

	if _, err := svc.Publish(context.Background(), "p1", owner); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	_, err := svc.Publish(context.Background(), "p2", owner)
	var qe *quota.QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
	if qe.Limit != 1 || qe.Used != 1 {
		t.Fatalf("QuotaExceeded{limit:%d, used:%d}, want {1, 1}", qe.Limit, qe.Used)
	}

	p, _ := repo.Get(context.Background(), "p2")
	if p.IsPublished {
		t.Fatal("denied publish must not change state")
	}
}

func TestPublishRefundsQuotaOnStorageFailure(t *testing.T) {
	repo, ledger, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})
	repo.failMark = true

	if _, err := svc.Publish(context.Background(), "p1", owner); err == nil {
		t.Fatal("expected storage error")
	}
	if ledger.released != 1 {
		t.Fatalf("failed publish must refund quota, releases = %d", ledger.released)
	}
}

func TestPublishIdempotentWhenLive(t *testing.T) {
	repo, ledger, _, svc := newFixture(5)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})

	first, err := svc.Publish(context.Background(), "p1", owner)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	second, err := svc.Publish(context.Background(), "p1", owner)
	if err != nil {
		t.Fatalf("re-publish: %v", err)
	}
	if first != second {
		t.Fatalf("re-publish must return the live URL, got %q then %q", first, second)
	}
	if ledger.acquired != 1 {
		t.Fatalf("re-publish must not double-charge quota, acquires = %d", ledger.acquired)
	}
}

func TestUnpublishAdminOnly(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})
	svc.Publish(context.Background(), "p1", owner)

	// Ownership is not sufficient for unpublish.
	if err := svc.Unpublish(context.Background(), "p1", owner); err != publication.ErrForbidden {
		t.Fatalf("owner unpublish must be forbidden, got %v", err)
	}

	if err := svc.Unpublish(context.Background(), "p1", admin); err != nil {
		t.Fatalf("admin unpublish: %v", err)
	}
}

func TestUnpublishClearsAllFields(t *testing.T) {
	repo, _, sink, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID, Slug: strptr("my-site")})
	svc.Publish(context.Background(), "p1", owner)

	if err := svc.Unpublish(context.Background(), "p1", admin); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	p, _ := repo.Get(context.Background(), "p1")
	if p.IsPublished || p.Slug != nil || p.PublishedURL != nil || p.PublishedAt != nil {
		t.Fatalf("unpublish must clear all four fields together: %+v", p)
	}

	last := sink.entries[len(sink.entries)-1]
	if last.Action != "project.unpublished" || last.ActorID != adminID {
		t.Fatalf("activity must record the admin actor: %+v", last)
	}
}

func TestChangeSlugOwnerOnly(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID})

	// Even an admin cannot change another user's slug.
	if _, _, err := svc.ChangeSlug(context.Background(), "p1", admin, "new-name"); err != publication.ErrForbidden {
		t.Fatalf("admin slug change must be forbidden, got %v", err)
	}

	got, preview, err := svc.ChangeSlug(context.Background(), "p1", owner, "new-name")
	if err != nil {
		t.Fatalf("change slug: %v", err)
	}
	if got != "new-name" || preview != "https://new-name.gowebsite.io" {
		t.Fatalf("slug=%q preview=%q", got, preview)
	}
}

func TestChangeSlugDoesNotPublish(t *testing.T) {
	repo, _, _, svc := newFixture(1)
	repo.add(&domain.Project{ID: "p1", OwnerID: ownerID})

	if _, _, err := svc.ChangeSlug(context.Background(), "p1", owner, "my-site"); err != nil {
		t.Fatalf("change slug: %v", err)
	}
	p, _ := repo.Get(context.Background(), "p1")
	if p.IsPublished {
		t.Fatal("slug assignment must not publish")
	}
}

func TestNotFound(t *testing.T) {
	_, _, _, svc := newFixture(1)
	if _, err := svc.Publish(context.Background(), "ghost", owner); err != publication.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
