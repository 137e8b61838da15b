package slug

import "context"

// Repository defines the data access contract for slug reservation.
// Implementations must be safe for concurrent use.
type Repository interface {
	// HolderOf returns the id of the project currently holding the slug,
	// or "" if the slug is unheld.
	HolderOf(ctx context.Context, slug string) (string, error)

	// Reserve writes the slug onto the project in a single conditional
	// update scoped by both project id and owner id, so a cross-tenant
	// overwrite is impossible even under a race. If the project is
	// currently published, publishedURL replaces its published_url in the
	// same statement. Returns ErrNotFound if no row matches the predicate
	// and ErrSlugTaken if the storage-level uniqueness constraint rejects
	// the write (the authoritative signal; see Service.Reserve).
	Reserve(ctx context.Context, projectID, ownerID, slug, publishedURL string) error
}
