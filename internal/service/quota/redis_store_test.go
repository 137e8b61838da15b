package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/gowebsite/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisStore, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	return store, func() {
		client.Close()
		mr.Close()
	}
}

func TestRedisStoreIncrementIfBelow(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	end := time.Now().Add(48 * time.Hour)

	count, ok, err := store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end, 2)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !ok || count != 1 {
		t.Fatalf("first increment: count=%d ok=%v, want 1 true", count, ok)
	}

	count, ok, err = store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end, 2)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !ok || count != 2 {
		t.Fatalf("second increment: count=%d ok=%v, want 2 true", count, ok)
	}

	count, ok, err = store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end, 2)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if ok || count != 2 {
		t.Fatalf("over-limit increment: count=%d ok=%v, want 2 false", count, ok)
	}
}

func TestRedisStoreUsed(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	end := time.Now().Add(48 * time.Hour)

	used, err := store.Used(ctx, "u1", "p1", domain.UsageWebsiteRegen, end)
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 0 {
		t.Fatalf("fresh counter must read 0, got %d", used)
	}

	if _, _, err := store.IncrementIfBelow(ctx, "u1", "p1", domain.UsageWebsiteRegen, end, 10); err != nil {
		t.Fatalf("increment: %v", err)
	}

	used, err = store.Used(ctx, "u1", "p1", domain.UsageWebsiteRegen, end)
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 1 {
		t.Fatalf("counter must read 1, got %d", used)
	}
}

func TestRedisStorePeriodKeysAreIndependent(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	end1 := time.Now().Add(48 * time.Hour)
	end2 := end1.AddDate(0, 1, 0)

	if _, _, err := store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end1, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}

	used, err := store.Used(ctx, "u1", "", domain.UsageWebsitesPublished, end2)
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	if used != 0 {
		t.Fatalf("next period counter must start at 0, got %d", used)
	}
}

func TestRedisStoreDecrement(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	end := time.Now().Add(48 * time.Hour)

	// Decrement on a missing key floors at zero.
	if err := store.Decrement(ctx, "u1", "", domain.UsageWebsitesPublished, end); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	used, _ := store.Used(ctx, "u1", "", domain.UsageWebsitesPublished, end)
	if used != 0 {
		t.Fatalf("decrement must floor at 0, got %d", used)
	}

	store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end, 5)
	store.IncrementIfBelow(ctx, "u1", "", domain.UsageWebsitesPublished, end, 5)
	if err := store.Decrement(ctx, "u1", "", domain.UsageWebsitesPublished, end); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	used, _ = store.Used(ctx, "u1", "", domain.UsageWebsitesPublished, end)
	if used != 1 {
		t.Fatalf("counter must read 1 after refund, got %d", used)
	}
}

func TestRedisLedgerEndToEnd(t *testing.T) {
	store, cleanup := setupTestRedis(t)
	defer cleanup()

	l := NewLedger(DefaultLimits, store)
	ctx := context.Background()
	end := time.Now().Add(48 * time.Hour)

	u, err := l.Acquire(ctx, "u1", "", domain.UsageWebsitesPublished, domain.PlanFree, end)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if u.Used != 1 || u.Allowed {
		t.Fatalf("after acquire: %+v", u)
	}

	if _, err := l.Acquire(ctx, "u1", "", domain.UsageWebsitesPublished, domain.PlanFree, end); err == nil {
		t.Fatal("second acquire against limit 1 must be denied")
	}
}
