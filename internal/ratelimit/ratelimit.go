package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const fixedWindowLua = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`

// Limiter is a fixed-window request counter kept in Redis so that every API
// instance shares the same budget per client.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
	logger *slog.Logger
	script *redis.Script
}

func NewRedisLimiter(rdb *redis.Client, logger *slog.Logger, prefix string, limit int, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = "folio:ratelimit"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		logger: logger,
		script: redis.NewScript(fixedWindowLua),
	}
}

// Allow records one hit for key. When the window budget is spent it reports
// false together with the time left until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 || l.window <= 0 {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	res, err := l.script.Run(ctx, l.rdb, []string{redisKey}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit eval: %w", err)
	}
	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("ratelimit invalid result")
	}

	count := toInt64(values[0])
	if count <= l.limit {
		return true, 0, nil
	}

	retryAfter := time.Duration(toInt64(values[1])) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = l.window
	}
	l.logger.Debug("rate limit exceeded", slog.String("key", key), slog.Int64("count", count))
	return false, retryAfter, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
