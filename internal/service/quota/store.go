package quota

import (
	"context"
	"time"

	"github.com/ignite/gowebsite/internal/domain"
)

// Store is the counter backend for the ledger. Implementations must make
// IncrementIfBelow a single atomic operation against the store (one Lua
// script, one conditional SQL statement), never a read followed by a
// separate write.
type Store interface {
	// Used returns the counter's current value for the period. A counter
	// that has never been incremented reads as zero.
	Used(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) (int, error)

	// IncrementIfBelow atomically bumps the counter by one if and only if
	// the current value is below limit. Returns the post-operation count
	// and whether the bump was applied.
	IncrementIfBelow(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time, limit int) (int, bool, error)

	// Decrement lowers the counter by one, flooring at zero. Used to
	// refund quota when the guarded action fails after admission.
	Decrement(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) error
}

// RollPeriod returns the billing-period boundary that is currently active.
// Counters partition by billing cycle, so if the recorded boundary is in
// the past it advances in whole-month steps until it lands in the future;
// the counters under the old boundary are simply never read again. A zero
// boundary (no subscription record yet) anchors to calendar months, so
// repeated calls within a month land in the same counter bucket.
func RollPeriod(periodEnd, now time.Time) time.Time {
	if periodEnd.IsZero() {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}
	for !periodEnd.After(now) {
		periodEnd = periodEnd.AddDate(0, 1, 0)
	}
	return periodEnd
}
