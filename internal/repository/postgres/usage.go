package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/gowebsite/internal/domain"
)

// UsageStore implements quota.Store against the usage table. It is the
// fallback backend when Redis is not configured. The conditional bump is
// a single INSERT ... ON CONFLICT ... DO UPDATE ... WHERE statement, so
// the limit check and the increment cannot straddle a race.
//
// project_id uses '' (not NULL) for user-scoped counters so the composite
// uniqueness constraint covers it.
type UsageStore struct{ db *sql.DB }

// NewUsageStore creates a Postgres-backed usage store.
func NewUsageStore(db *sql.DB) *UsageStore { return &UsageStore{db: db} }

// Used returns the counter's current value; a missing row reads as zero.
func (s *UsageStore) Used(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM usage
		WHERE user_id = $1 AND project_id = $2 AND usage_key = $3 AND period_end = $4
	`, userID, projectID, string(key), periodEnd).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	return count, nil
}

// IncrementIfBelow atomically bumps the counter when current < limit.
func (s *UsageStore) IncrementIfBelow(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time, limit int) (int, bool, error) {
	if limit <= 0 {
		used, err := s.Used(ctx, userID, projectID, key, periodEnd)
		return used, false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage (user_id, project_id, usage_key, period_end, count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (user_id, project_id, usage_key, period_end)
		DO UPDATE SET count = usage.count + 1
		WHERE usage.count < $5
		RETURNING count
	`, userID, projectID, string(key), periodEnd, limit).Scan(&count)
	if err == sql.ErrNoRows {
		// The WHERE clause rejected the bump: counter is at the limit.
		used, rerr := s.Used(ctx, userID, projectID, key, periodEnd)
		if rerr != nil {
			return 0, false, rerr
		}
		return used, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("conditional increment: %w", err)
	}
	return count, true, nil
}

// Decrement lowers the counter by one, flooring at zero.
func (s *UsageStore) Decrement(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE usage SET count = GREATEST(count - 1, 0)
		WHERE user_id = $1 AND project_id = $2 AND usage_key = $3 AND period_end = $4
	`, userID, projectID, string(key), periodEnd)
	if err != nil {
		return fmt.Errorf("decrement counter: %w", err)
	}
	return nil
}
