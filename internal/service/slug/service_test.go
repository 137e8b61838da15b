package slug_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ignite/gowebsite/internal/service/slug"
)

// memRepo is an in-memory slug repository for unit testing.
type memRepo struct {
	mu      sync.Mutex
	holders map[string]string // slug -> project id
	owners  map[string]string // project id -> owner id
}

func newMemRepo() *memRepo {
	return &memRepo{holders: make(map[string]string), owners: make(map[string]string)}
}

func (m *memRepo) addProject(projectID, ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[projectID] = ownerID
}

func (m *memRepo) HolderOf(_ context.Context, s string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holders[s], nil
}

func (m *memRepo) Reserve(_ context.Context, projectID, ownerID, s, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.owners[projectID]; !ok || owner != ownerID {
		return slug.ErrNotFound
	}
	if holder, ok := m.holders[s]; ok && holder != projectID {
		return slug.ErrSlugTaken
	}
	// Release the project's previous slug before taking the new one.
	for prev, holder := range m.holders {
		if holder == projectID {
			delete(m.holders, prev)
		}
	}
	m.holders[s] = projectID
	return nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{" Joe's Pizza ", "joe-s-pizza", false},
		{"My Café!!", "my-caf", false},
		{"HELLO", "hello", false},
		{"already-fine-123", "already-fine-123", false},
		{"--weird--input--", "weird-input", false},
		{"a   b", "a-b", false},
		{"", "", true},
		{"!!!", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := slug.Normalize(tt.in)
		if tt.wantErr {
			if err != slug.ErrInvalidSlug {
				t.Errorf("Normalize(%q) err = %v, want ErrInvalidSlug", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReserve(t *testing.T) {
	repo := newMemRepo()
	repo.addProject("p1", "u1")
	svc := slug.NewService(repo, "gowebsite.io")

	got, err := svc.Reserve(context.Background(), "p1", "u1", "Joe's Pizza")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got != "joe-s-pizza" {
		t.Fatalf("reserved slug = %q, want joe-s-pizza", got)
	}
}

func TestReserveIdempotentForSameProject(t *testing.T) {
	repo := newMemRepo()
	repo.addProject("p1", "u1")
	svc := slug.NewService(repo, "gowebsite.io")

	if _, err := svc.Reserve(context.Background(), "p1", "u1", "my-site"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := svc.Reserve(context.Background(), "p1", "u1", "my-site"); err != nil {
		t.Fatalf("re-reserving own slug must be idempotent, got %v", err)
	}
}

func TestReserveTaken(t *testing.T) {
	repo := newMemRepo()
	repo.addProject("p1", "u1")
	repo.addProject("p2", "u2")
	svc := slug.NewService(repo, "gowebsite.io")

	if _, err := svc.Reserve(context.Background(), "p1", "u1", "my-site"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := svc.Reserve(context.Background(), "p2", "u2", "my-site")
	if err != slug.ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestReserveInvalid(t *testing.T) {
	svc := slug.NewService(newMemRepo(), "gowebsite.io")
	_, err := svc.Reserve(context.Background(), "p1", "u1", "???")
	if err != slug.ErrInvalidSlug {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}
}

func TestReserveOwnershipScoped(t *testing.T) {
	repo := newMemRepo()
	repo.addProject("p1", "u1")
	svc := slug.NewService(repo, "gowebsite.io")

	// Wrong owner: the update predicate matches no row.
	_, err := svc.Reserve(context.Background(), "p1", "intruder", "stolen")
	if err != slug.ErrNotFound {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestSiteURL(t *testing.T) {
	svc := slug.NewService(newMemRepo(), "gowebsite.io")
	if got := svc.SiteURL("shop"); got != "https://shop.gowebsite.io" {
		t.Fatalf("SiteURL = %q", got)
	}
}
