package http

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const msgTooManyAttempts = "Too many login attempts. Try again later."

// AttemptCounter counts attempts per key inside a fixed window.
type AttemptCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter implements AttemptCounter with INCR and EXPIRE.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Hit increments key and returns the new count and the window time left.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, 0, err
		}
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, nil
	}
	return count, ttl, nil
}

// LoginRateLimiter rejects logins once an email and IP pair exceeds limit
// attempts inside window. Counter failures let the request through.
func LoginRateLimiter(counter AttemptCounter, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if counter == nil || limit <= 0 || window <= 0 {
			return c.Next()
		}

		key := "login:" + loginEmail(c.Body()) + ":" + c.IP()
		count, ttl, err := counter.Hit(c.UserContext(), key, window)
		if err != nil {
			logger.Warn("login rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			if ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			}
			return apperrors.NewTooManyRequests(msgTooManyAttempts)
		}
		return c.Next()
	}
}

func loginEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
