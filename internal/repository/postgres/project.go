package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/service/publication"
	"github.com/ignite/gowebsite/internal/service/slug"
)

// uniqueViolation is the Postgres error code for a unique constraint
// violation; the slug column carries a unique index, so this is the
// authoritative SlugTaken signal under concurrency.
const uniqueViolation = "23505"

// ProjectRepo implements slug.Repository and publication.Repository
// against PostgreSQL.
type ProjectRepo struct{ db *sql.DB }

// NewProjectRepo creates a Postgres-backed project repository.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

func (r *ProjectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	p := &domain.Project{}
	var slugCol, urlCol sql.NullString
	var publishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, slug, is_published, published_url, published_at, updated_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.OwnerID, &p.Name, &slugCol, &p.IsPublished, &urlCol, &publishedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, publication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if slugCol.Valid {
		p.Slug = &slugCol.String
	}
	if urlCol.Valid {
		p.PublishedURL = &urlCol.String
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return p, nil
}

// ListByOwner returns all of a user's projects, newest first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, slug, is_published, published_url, published_at, updated_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		var slugCol, urlCol sql.NullString
		var publishedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &slugCol, &p.IsPublished, &urlCol, &publishedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if slugCol.Valid {
			p.Slug = &slugCol.String
		}
		if urlCol.Valid {
			p.PublishedURL = &urlCol.String
		}
		if publishedAt.Valid {
			p.PublishedAt = &publishedAt.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetBySlug returns the live project serving the slug. Drafts holding a
// reserved slug are not served.
func (r *ProjectRepo) GetBySlug(ctx context.Context, s string) (*domain.Project, error) {
	p := &domain.Project{}
	var slugCol, urlCol sql.NullString
	var publishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, slug, is_published, published_url, published_at, updated_at
		FROM projects
		WHERE slug = $1 AND is_published = TRUE
	`, s).Scan(&p.ID, &p.OwnerID, &p.Name, &slugCol, &p.IsPublished, &urlCol, &publishedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, publication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project by slug: %w", err)
	}
	if slugCol.Valid {
		p.Slug = &slugCol.String
	}
	if urlCol.Valid {
		p.PublishedURL = &urlCol.String
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return p, nil
}

// HolderOf returns the id of the project holding the slug, or "".
func (r *ProjectRepo) HolderOf(ctx context.Context, s string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE slug = $1`, s).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("slug holder: %w", err)
	}
	return id, nil
}

// Reserve writes the slug in one conditional update scoped by project AND
// owner, so a cross-tenant overwrite cannot happen even under a race. When
// the project is live the published URL moves to the new slug in the same
// statement. A unique violation from the slug index maps to ErrSlugTaken.
func (r *ProjectRepo) Reserve(ctx context.Context, projectID, ownerID, s, publishedURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET slug = $1,
		    published_url = CASE WHEN is_published THEN $2 ELSE published_url END,
		    updated_at = NOW()
		WHERE id = $3 AND owner_id = $4
	`, s, publishedURL, projectID, ownerID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return slug.ErrSlugTaken
		}
		return fmt.Errorf("reserve slug: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return slug.ErrNotFound
	}
	return nil
}

// MarkPublished flips the project live. The predicate requires a reserved
// slug, so the check and the write are one statement.
func (r *ProjectRepo) MarkPublished(ctx context.Context, projectID, publishedURL string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET is_published = TRUE, published_url = $1, published_at = $2, updated_at = NOW()
		WHERE id = $3 AND slug IS NOT NULL AND slug <> ''
	`, publishedURL, at, projectID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguish a missing row from a missing slug for the caller's
		// error; the update above remains the only mutation.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, projectID).Scan(&exists); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		if exists {
			return publication.ErrNoSlug
		}
		return publication.ErrNotFound
	}
	return nil
}

// ClearPublication releases the slug and clears every publication field
// together — never a partial clear.
func (r *ProjectRepo) ClearPublication(ctx context.Context, projectID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET is_published = FALSE, slug = NULL, published_url = NULL, published_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("clear publication: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return publication.ErrNotFound
	}
	return nil
}
