package quota

import (
	"fmt"

	"github.com/ignite/gowebsite/internal/domain"
)

// QuotaExceededError reports a denied plan-limited action. It carries the
// plan's limit and the current usage so callers can render an upgrade
// prompt.
type QuotaExceededError struct {
	Key   domain.UsageKey
	Limit int
	Used  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: used %d of %d", e.Key, e.Used, e.Limit)
}
