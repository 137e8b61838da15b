package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/service/publication"
)

// ProfileRepo reads identity/billing records. The core never writes
// profiles; plan and role belong to the auth/billing collaborator.
type ProfileRepo struct{ db *sql.DB }

// NewProfileRepo creates a Postgres-backed profile repository.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, plan, current_period_end, suspended
		FROM profiles
		WHERE id = $1
	`, userID).Scan(&p.ID, &p.Email, &p.Role, &p.Plan, &p.CurrentPeriodEnd, &p.Suspended)
	if err == sql.ErrNoRows {
		return nil, publication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetByEmail resolves a profile from a login email, used by the auth
// callback to attach role and plan to the session.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, role, plan, current_period_end, suspended
		FROM profiles
		WHERE email = $1
	`, email).Scan(&p.ID, &p.Email, &p.Role, &p.Plan, &p.CurrentPeriodEnd, &p.Suspended)
	if err == sql.ErrNoRows {
		return nil, publication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}
