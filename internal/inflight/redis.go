package inflight

import (
	"context"
	"fmt"
	"time"

	"event-admin/internal/status"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RedisKeyPrefix  = "admin:inflight:"
	DefaultRedisTTL = 30 * time.Second
)

// releaseScript deletes the marker only when this owner still holds it, so
// an expired marker re-taken by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares markers between dashboard replicas. Markers expire after
// ttl so a crashed replica cannot block a key forever.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	owner  string
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

func (r *Redis) Begin(ctx context.Context, key string) error {
	ok, err := r.client.SetNX(ctx, RedisKeyPrefix+key, r.owner, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("inflight: set marker %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", key, status.ErrInFlight)
	}
	return nil
}

func (r *Redis) End(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, r.client, []string{RedisKeyPrefix + key}, r.owner).Err(); err != nil {
		return fmt.Errorf("inflight: release marker %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Busy(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, RedisKeyPrefix+key).Result()
	return err == nil && n > 0
}
