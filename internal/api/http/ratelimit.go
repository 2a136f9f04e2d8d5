package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/config"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter caps public writes per client IP with a Redis fixed window,
// so every API instance shares the same counters.
type RateLimiter struct {
	client   redis.Scripter
	limit    int
	window   time.Duration
	failOpen bool
	prefix   string
	logger   *zap.Logger
}

// NewRateLimiter builds a limiter from config. A nil client disables limiting.
func NewRateLimiter(client redis.Scripter, cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	limit := cfg.Requests
	if limit <= 0 {
		limit = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		client:   client,
		limit:    limit,
		window:   cfg.Window(),
		failOpen: cfg.FailOpen,
		prefix:   "ratelimit",
		logger:   logger,
	}
}

// Handle is the fiber middleware.
func (rl *RateLimiter) Handle(c *fiber.Ctx) error {
	if rl == nil || rl.client == nil {
		return c.Next()
	}
	key := fmt.Sprintf("%s:%s:%s", rl.prefix, c.Route().Path, c.IP())
	count, err := rl.incr(c.UserContext(), key)
	if err != nil {
		rl.logger.Warn("rate limiter unavailable", zap.Error(err))
		if rl.failOpen {
			return c.Next()
		}
		return apperrors.NewDomainError(apperrors.CodeDependencyUnavailable, "rate limiter unavailable", fiber.StatusServiceUnavailable, nil)
	}
	c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	if remaining := int64(rl.limit) - count; remaining > 0 {
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	} else {
		c.Set("X-RateLimit-Remaining", "0")
	}
	if count > int64(rl.limit) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rl.window.Seconds())))
		return apperrors.NewRateLimited()
	}
	return c.Next()
}

func (rl *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, rl.client, []string{key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected rate limit script result %T", res)
	}
}
