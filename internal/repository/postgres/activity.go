package postgres

import (
	"context"
	"database/sql"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/pkg/logger"
)

// ActivityRepo appends audit entries to activity_logs. Appends are
// best-effort: failures are logged and swallowed so they never roll back
// the mutation they accompany.
type ActivityRepo struct{ db *sql.DB }

// NewActivityRepo creates a Postgres-backed activity sink.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Record(ctx context.Context, e domain.ActivityEntry) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, actor_id, project_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.ActorID, e.ProjectID, e.Action, e.Detail, e.CreatedAt)
	if err != nil {
		logger.Warn("activity append failed", "action", e.Action, "project_id", e.ProjectID, "err", err.Error())
	}
}
