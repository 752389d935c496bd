// Package ratelimit provides a redis-backed request limiter used to keep
// signup, login and rating submission abuse in check.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is the interface consumed by the HTTP middleware.
type Limiter interface {
	// Allow checks whether one more request under key fits inside the
	// window. Returns false once the limit is exhausted.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// AllowN consumes n tokens at once.
	AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error)

	// Reset clears the counters for a key across the common windows.
	Reset(ctx context.Context, key string) error

	// Remaining reports how many requests are left in the current window.
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// WindowLimiter counts requests in fixed time buckets with redis INCR and
// EXPIRE, which keeps the check to one pipelined round trip and works
// across multiple server instances.
type WindowLimiter struct {
	redisClient *redis.Client
	logger      *zap.Logger
	failOpen    bool // allow traffic when redis is down
}

// NewWindowLimiter creates a limiter. With failOpen set, redis outages let
// requests through instead of turning the limiter into an outage of its own.
func NewWindowLimiter(redisClient *redis.Client, logger *zap.Logger, failOpen bool) *WindowLimiter {
	return &WindowLimiter{
		redisClient: redisClient,
		logger:      logger,
		failOpen:    failOpen,
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.AllowN(ctx, key, 1, limit, window)
}

func (l *WindowLimiter) AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	pipe := l.redisClient.Pipeline()
	incrCmd := pipe.IncrBy(ctx, bucketKey, int64(n))
	// one extra second so the key outlives the bucket boundary
	pipe.Expire(ctx, bucketKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.logger.Warn("rate limit check failed, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incrCmd.Val()
	allowed := count <= int64(limit)

	if !allowed {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
			zap.Duration("window", window),
		)
	}

	return allowed, nil
}

func (l *WindowLimiter) Reset(ctx context.Context, key string) error {
	// clear current and previous buckets for the windows we hand out
	now := time.Now()
	windows := []time.Duration{time.Minute, time.Hour, 24 * time.Hour}

	var keys []string
	for _, window := range windows {
		keys = append(keys, l.bucketKey(key, now, window))
		keys = append(keys, l.bucketKey(key, now.Add(-window), window))
	}

	if err := l.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for key %s: %w", key, err)
	}

	l.logger.Info("rate limit reset", zap.String("key", key))
	return nil
}

func (l *WindowLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	count, err := l.redisClient.Get(ctx, bucketKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return limit, nil
		}
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// bucketKey maps (key, now, window) onto a fixed bucket so all requests in
// the same window hit the same redis counter.
func (l *WindowLimiter) bucketKey(key string, now time.Time, window time.Duration) string {
	var bucketTime int64
	switch {
	case window <= time.Minute:
		bucketTime = now.Unix() / int64(window.Seconds())
	case window <= time.Hour:
		bucketTime = now.Unix() / 60 / int64(window.Minutes())
	default:
		bucketTime = now.Unix() / 3600 / int64(window.Hours())
	}
	return fmt.Sprintf("ratelimit:%s:%d", key, bucketTime)
}

// Rule pairs a limit with its window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules holds the per-endpoint limits from config.
type Rules struct {
	RegisterPerMinute int
	LoginPerMinute    int
	RatingPerMinute   int
	APIPerMinute      int
}

// RuleFor returns the limit rule for an endpoint class.
func RuleFor(endpoint string, rules *Rules) Rule {
	switch endpoint {
	case "register":
		return Rule{Limit: rules.RegisterPerMinute, Window: time.Minute}
	case "login":
		return Rule{Limit: rules.LoginPerMinute, Window: time.Minute}
	case "rating":
		return Rule{Limit: rules.RatingPerMinute, Window: time.Minute}
	case "api":
		return Rule{Limit: rules.APIPerMinute, Window: time.Minute}
	default:
		return Rule{Limit: 100, Window: time.Minute}
	}
}
