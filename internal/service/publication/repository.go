package publication

import (
	"context"
	"time"

	"github.com/ignite/gowebsite/internal/domain"
)

// Repository defines the data access contract for publication transitions.
// Implementations must be safe for concurrent use, and each mutation must
// be a single conditional statement so the precondition and the write
// cannot straddle a race.
type Repository interface {
	// Get returns a single project. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, projectID string) (*domain.Project, error)

	// MarkPublished flips the project live in one conditional update whose
	// predicate requires a reserved slug. Returns ErrNoSlug when the
	// predicate matches no row because the slug is missing, ErrNotFound
	// when the project doesn't exist.
	MarkPublished(ctx context.Context, projectID, publishedURL string, at time.Time) error

	// ClearPublication clears is_published, slug, published_url and
	// published_at together — never a partial clear. The slug is released
	// back to the registry. Returns ErrNotFound if no row matches.
	ClearPublication(ctx context.Context, projectID string) error
}

// Profiles yields the billing identity the quota ledger needs.
type Profiles interface {
	// Get returns the profile for a user id, or ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// ActivitySink receives audit entries. Appends are fire-and-forget: a
// sink failure must never roll back the mutation it accompanies.
type ActivitySink interface {
	Record(ctx context.Context, entry domain.ActivityEntry)
}
