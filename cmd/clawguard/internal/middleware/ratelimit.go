package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/authn"
	"github.com/clawguard/clawguard/internal/metrics"
)

// RateLimiter throttles scan/policy requests per agent using a Redis
// fixed-window counter.
type RateLimiter struct {
	redis  *redis.Client
	logger *zap.Logger

	requestsPerMinute int
}

// NewRateLimiter creates a rate limiter allowing requestsPerMinute
// requests per agent per minute.
func NewRateLimiter(redisClient *redis.Client, requestsPerMinute int, logger *zap.Logger) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 120
	}
	return &RateLimiter{redis: redisClient, requestsPerMinute: requestsPerMinute, logger: logger}
}

// Middleware returns the HTTP middleware function.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := authn.FromContext(ctx)
		if id == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:agent:%s", id.AgentID)
		allowed, remaining, resetAt := rl.checkRateLimit(ctx, key)

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))

		if !allowed {
			metrics.RateLimitRejectionsTotal.Inc()
			rl.logger.Warn("rate limit exceeded",
				zap.String("agent_id", id.AgentID),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", resetAt.Unix()-time.Now().Unix()))
			rl.sendRateLimitError(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (allowed bool, remaining int, resetAt time.Time) {
	now := time.Now()
	window := now.Truncate(time.Minute)
	windowKey := fmt.Sprintf("%s:%d", key, window.Unix())

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, time.Minute+time.Second)
	_, err := pipe.Exec(ctx)

	if err != nil {
		rl.logger.Error("rate limit check failed", zap.Error(err))
		return true, rl.requestsPerMinute, window.Add(time.Minute)
	}

	count := incr.Val()
	remaining = rl.requestsPerMinute - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAt = window.Add(time.Minute)
	allowed = count <= int64(rl.requestsPerMinute)
	return allowed, remaining, resetAt
}

func (rl *RateLimiter) sendRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "rate limit exceeded",
		"message": "too many requests, retry after the rate limit window resets",
	})
}

// ServeHTTP implements http.Handler.
func (rl *RateLimiter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rl.sendRateLimitError(w)
}
