package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
	"github.com/ZanzyTHEbar/elkquiz/internal/resilience"
)

const (
	fallbackLimiterCap = 10000
	fallbackLimiterTTL = time.Hour

	redisFailureThreshold = 3
	redisRecoveryTimeout  = 30 * time.Second
)

// Config holds rate limiter configuration
type Config struct {
	SubmitLimitPerMin int // submissions per client IP per minute
	BurstMultiplier   int // in-memory burst capacity multiplier
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		SubmitLimitPerMin: 30,
		BurstMultiplier:   2,
	}
}

// Rate is a request budget over a period.
type Rate struct {
	Limit  int
	Period time.Duration
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Backend    string
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics
	breaker      *resilience.CircuitBreaker

	fallbackMu sync.Mutex
	fallback   *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a new rate limiter. redisClient may be nil or disabled.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.BurstMultiplier <= 0 {
		config.BurstMultiplier = 1
	}
	rl := &RateLimiter{
		redisClient: redisClient,
		config:      config,
		metrics:     metrics,
		fallback:    expirable.NewLRU[string, *rate.Limiter](fallbackLimiterCap, nil, fallbackLimiterTTL),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: redisFailureThreshold,
			RecoveryTimeout:  redisRecoveryTimeout,
		}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	return rl
}

// AllowSubmit checks the per-minute submission budget for ip.
func (rl *RateLimiter) AllowSubmit(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:submit:"+ip, Rate{
		Limit:  rl.config.SubmitLimitPerMin,
		Period: time.Minute,
	})
}

// Allow performs a rate limit check using Redis, falling back to memory.
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 || r.Period <= 0 {
		return nil, fmt.Errorf("invalid rate %d/%s", r.Limit, r.Period)
	}

	if rl.redisLimiter != nil && rl.redisClient.IsEnabled() {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, key, r)
			return err
		})
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, resilience.ErrCircuitOpen):
		default:
			slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitRedisError()
			}
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, r), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: max(res.RetryAfter, 0),
		Backend:    "redis",
	}, nil
}

// allowFallback uses a token bucket refilled at Limit per Period with a
// burst of Limit*BurstMultiplier.
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	limiter := rl.fallbackLimiter(key, r)

	now := time.Now()
	reservation := limiter.ReserveN(now, 1)
	result := &Result{
		Limit:   r.Limit,
		ResetAt: now.Add(r.Period),
		Backend: "memory",
	}
	if delay := reservation.DelayFrom(now); !reservation.OK() || delay > 0 {
		reservation.CancelAt(now)
		result.RetryAfter = max(delay, time.Second)
		result.ResetAt = now.Add(result.RetryAfter)
		return result
	}

	result.Allowed = true
	result.Remaining = max(int(limiter.TokensAt(now)), 0)
	return result
}

// fallbackLimiter returns the bucket for key, creating it once.
func (rl *RateLimiter) fallbackLimiter(key string, r Rate) *rate.Limiter {
	rl.fallbackMu.Lock()
	defer rl.fallbackMu.Unlock()

	if limiter, ok := rl.fallback.Get(key); ok {
		return limiter
	}
	burst := max(r.Limit*rl.config.BurstMultiplier, 1)
	limiter := rate.NewLimiter(rate.Limit(float64(r.Limit)/r.Period.Seconds()), burst)
	rl.fallback.Add(key, limiter)
	return limiter
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": rl.fallback.Len(),
		"submit_limit":      rl.config.SubmitLimitPerMin,
	}
	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
		stats["redis_circuit"] = rl.breaker.GetStats()
	}
	return stats
}
