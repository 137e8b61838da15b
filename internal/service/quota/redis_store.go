package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/gowebsite/internal/domain"
)

// RedisStore keeps usage counters in Redis with period-bucketed keys.
// The conditional increment runs as a pre-compiled Lua script so the
// check and the bump are a single atomic operation — a plain GET → check
// → INCR sequence would race under concurrent publishes.
type RedisStore struct {
	redis *redis.Client

	incrScript *redis.Script
	decrScript *redis.Script
}

// Counter keys expire one day after the billing period ends; a rolled
// period starts a fresh key, so stale counters just age out.
const keyGrace = 24 * time.Hour

const incrLuaScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

if current >= limit then
    return {0, current}
end

local newVal = redis.call("INCR", KEYS[1])
if newVal == 1 then
    redis.call("EXPIRE", KEYS[1], ttl)
end

return {1, newVal}
`

const decrLuaScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current <= 0 then
    return 0
end
return redis.call("DECR", KEYS[1])
`

// NewRedisStore creates a Redis-backed usage store with pre-compiled
// Lua scripts.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		redis:      client,
		incrScript: redis.NewScript(incrLuaScript),
		decrScript: redis.NewScript(decrLuaScript),
	}
}

// NewRedisStoreFromURL creates a Redis usage store by connecting to Redis
// and verifying the connection.
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisStore(client), nil
}

func counterKey(userID, projectID string, key domain.UsageKey, periodEnd time.Time) string {
	if projectID == "" {
		projectID = "-"
	}
	return fmt.Sprintf("quota:%s:%s:%s:%d", userID, projectID, key, periodEnd.Unix())
}

// Used returns the counter's current value; a missing key reads as zero.
func (s *RedisStore) Used(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) (int, error) {
	n, err := s.redis.Get(ctx, counterKey(userID, projectID, key, periodEnd)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	return n, nil
}

// IncrementIfBelow atomically bumps the counter when current < limit.
func (s *RedisStore) IncrementIfBelow(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time, limit int) (int, bool, error) {
	ttl := int(time.Until(periodEnd.Add(keyGrace)).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	result, err := s.incrScript.Run(ctx, s.redis,
		[]string{counterKey(userID, projectID, key, periodEnd)},
		limit, ttl,
	).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("conditional increment: %w", err)
	}

	allowed := result[0].(int64) == 1
	count := int(result[1].(int64))
	return count, allowed, nil
}

// Decrement lowers the counter by one, flooring at zero.
func (s *RedisStore) Decrement(ctx context.Context, userID, projectID string, key domain.UsageKey, periodEnd time.Time) error {
	err := s.decrScript.Run(ctx, s.redis,
		[]string{counterKey(userID, projectID, key, periodEnd)},
	).Err()
	if err != nil {
		return fmt.Errorf("decrement counter: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.redis.Close()
}
