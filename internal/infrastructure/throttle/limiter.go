package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/authcore-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient configures a Redis client and verifies connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Limiter bounds issuance frequency and wrong-secret retries per
// (identifier, channel). All checks fail open: without Redis, or on a Redis
// error, the flow proceeds unthrottled.
type Limiter struct {
	client      *redis.Client
	cooldown    time.Duration
	maxAttempts int
}

func NewLimiter(client *redis.Client, cfg config.ThrottleConfig) *Limiter {
	return &Limiter{client: client, cooldown: cfg.RequestCooldown, maxAttempts: cfg.MaxVerifyAttempts}
}

// AllowRequest reports whether a new issuance for the pair is allowed, and if
// so starts the cooldown window.
func (l *Limiter) AllowRequest(ctx context.Context, identifier, channel string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := "cooldown:" + channel + ":" + identifier
	ok, err := l.client.SetNX(ctx, key, 1, l.cooldown).Result()
	if err != nil {
		slog.Warn("throttle check failed, allowing request", "key", key, "err", err)
		return true
	}
	return ok
}

// RecordMismatch counts a wrong-secret attempt and reports whether the pair
// has exhausted its retry budget. The counter expires with the given window,
// usually the artifact's remaining TTL.
func (l *Limiter) RecordMismatch(ctx context.Context, identifier, channel string, window time.Duration) bool {
	if l == nil || l.client == nil {
		return false
	}
	key := "attempts:" + channel + ":" + identifier
	cnt, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("attempt counter failed, allowing retry", "key", key, "err", err)
		return false
	}
	if cnt == 1 && window > 0 {
		l.client.Expire(ctx, key, window)
	}
	return cnt >= int64(l.maxAttempts)
}

// Reset clears the throttle state for the pair after a successful
// verification.
func (l *Limiter) Reset(ctx context.Context, identifier, channel string) {
	if l == nil || l.client == nil {
		return
	}
	l.client.Del(ctx, "cooldown:"+channel+":"+identifier, "attempts:"+channel+":"+identifier)
}

// ResetAttempts clears only the mismatch counter, called when a replacing
// issuance grants a fresh retry budget. The issuance cooldown stays in place.
func (l *Limiter) ResetAttempts(ctx context.Context, identifier, channel string) {
	if l == nil || l.client == nil {
		return
	}
	l.client.Del(ctx, "attempts:"+channel+":"+identifier)
}
