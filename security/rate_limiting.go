package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitPrefix = "admin:ratelimit:"
	defaultWindow   = time.Minute
)

// RateLimiter caps dashboard mutations per admin in a fixed window shared
// through Redis.
type RateLimiter struct {
	redis  redis.Cmdable
	limit  int64
	window time.Duration
	log    *zap.Logger
}

func NewRateLimiter(redisClient redis.Cmdable, limit int, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: defaultWindow,
		log:    log,
	}
}

// Allow counts one request for id and reports whether it is within the
// limit. A limiter without Redis or without a positive limit allows all.
func (r *RateLimiter) Allow(ctx context.Context, id string) (bool, error) {
	if r == nil || r.redis == nil || r.limit <= 0 {
		return true, nil
	}

	key := rateLimitPrefix + id
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("rate limit incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			return true, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
	}
	return count <= r.limit, nil
}

// Middleware rejects a caller's mutations above the limit with 429. Redis
// failures are logged and let the request through.
func (r *RateLimiter) Middleware() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "adminMutationRateLimit",
		Func: func(e *core.RequestEvent) error {
			id := identifier(e)
			ok, err := r.Allow(e.Request.Context(), id)
			if err != nil {
				r.log.Warn("rate limiter unavailable", zap.String("id", id), zap.Error(err))
			}
			if !ok {
				return e.JSON(http.StatusTooManyRequests, map[string]any{
					"success": false,
					"error":   "Too many requests. Please try again later.",
				})
			}
			return e.Next()
		},
	}
}

// identifier is the admin record id, or the remote address for anonymous
// calls. Mutation routes require auth, so the fallback is rarely used.
func identifier(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "admin:" + e.Auth.Id
	}
	host, _, err := net.SplitHostPort(e.Request.RemoteAddr)
	if err != nil {
		host = e.Request.RemoteAddr
	}
	return "ip:" + host
}
