package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/pkg/logger"
)

// Usage is the ledger's answer for one (user, key, period) counter.
type Usage struct {
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Allowed   bool `json:"allowed"`
}

// Ledger combines the static plan-limit table with a counter store.
// Safe for concurrent use.
type Ledger struct {
	limits Limits
	store  Store
	now    func() time.Time
}

// NewLedger creates a ledger over the given limits and store.
func NewLedger(limits Limits, store Store) *Ledger {
	return &Ledger{limits: limits, store: store, now: time.Now}
}

// CheckUsage is a pure read: it reports the counter state for the active
// billing period without charging anything. Unknown plan/key pairs come
// back as limit 0, allowed false.
func (l *Ledger) CheckUsage(ctx context.Context, userID, projectID string, key domain.UsageKey, plan domain.Plan, periodEnd time.Time) (Usage, error) {
	limit := l.limits.LimitFor(plan, key)
	period := RollPeriod(periodEnd, l.now())

	used, err := l.store.Used(ctx, userID, projectID, key, period)
	if err != nil {
		return Usage{}, fmt.Errorf("read usage %s: %w", key, err)
	}
	return usageFrom(used, limit), nil
}

// Acquire charges one unit against the counter, admitting the action only
// if usage stays within the plan limit. The increment is atomic in the
// store, so concurrent acquires cannot jointly overrun the limit. On
// denial the returned Usage reflects the untouched counter.
func (l *Ledger) Acquire(ctx context.Context, userID, projectID string, key domain.UsageKey, plan domain.Plan, periodEnd time.Time) (Usage, error) {
	limit := l.limits.LimitFor(plan, key)
	period := RollPeriod(periodEnd, l.now())

	if limit <= 0 {
		return Usage{Limit: limit}, &QuotaExceededError{Key: key, Limit: limit, Used: 0}
	}

	count, ok, err := l.store.IncrementIfBelow(ctx, userID, projectID, key, period, limit)
	if err != nil {
		return Usage{}, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return usageFrom(count, limit), &QuotaExceededError{Key: key, Limit: limit, Used: count}
	}
	return usageFrom(count, limit), nil
}

// Release refunds one unit, used when the guarded action fails after
// Acquire admitted it. Best-effort: a failed refund is logged, not
// propagated, since the caller is already unwinding an error.
func (l *Ledger) Release(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) {
	period := RollPeriod(periodEnd, l.now())
	if err := l.store.Decrement(ctx, userID, projectID, key, period); err != nil {
		logger.Warn("quota refund failed", "user_id", userID, "key", string(key), "err", err.Error())
	}
}

func usageFrom(used, limit int) Usage {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Used:      used,
		Remaining: remaining,
		Limit:     limit,
		Allowed:   used < limit,
	}
}
