package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
)

func TestRateLimiterFallbackMode(t *testing.T) {
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(&RedisClient{}, Config{SubmitLimitPerMin: 10, BurstMultiplier: 1}, metrics)

	ctx := context.Background()
	r := Rate{Limit: 5, Period: time.Minute}
	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "test:client", r)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, "memory", result.Backend)
	}

	result, err := limiter.Allow(ctx, "test:client", r)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.Zero(t, result.Remaining)
	assert.EqualValues(t, 6, metrics.RateLimitFallbackCount)
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	limiter := NewRateLimiter(nil, Config{SubmitLimitPerMin: 5, BurstMultiplier: 2}, nil)

	allowed := 0
	for i := 0; i < 15; i++ {
		result, err := limiter.AllowSubmit(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		if result.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(nil, Config{SubmitLimitPerMin: 1, BurstMultiplier: 1}, nil)
	ctx := context.Background()

	first, err := limiter.AllowSubmit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.AllowSubmit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.AllowSubmit(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	assert.Equal(t, 2, limiter.GetStats()["fallback_limiters"])
}

func TestRateLimiterConcurrentFirstRequests(t *testing.T) {
	limiter := NewRateLimiter(nil, Config{SubmitLimitPerMin: 1, BurstMultiplier: 1}, nil)
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		ip := fmt.Sprintf("10.1.0.%d", round)
		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := limiter.AllowSubmit(ctx, ip)
				if err == nil && result.Allowed {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, allowed.Load(), "round %d", round)
	}
}

func TestFallbackLimiterCreatedOnce(t *testing.T) {
	limiter := NewRateLimiter(nil, DefaultConfig(), nil)
	r := Rate{Limit: 3, Period: time.Minute}

	got := make([]*rate.Limiter, 16)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = limiter.fallbackLimiter("shared", r)
		}()
	}
	wg.Wait()

	for _, l := range got[1:] {
		assert.Same(t, got[0], l)
	}
	assert.Equal(t, 1, limiter.fallback.Len())
}

func TestRateLimiterRejectsInvalidRate(t *testing.T) {
	limiter := NewRateLimiter(nil, DefaultConfig(), nil)
	_, err := limiter.Allow(context.Background(), "k", Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
}

func TestRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
	assert.Equal(t, map[string]interface{}{"enabled": false}, client.GetPoolStats())

	var nilClient *RedisClient
	assert.False(t, nilClient.IsEnabled())
	assert.Nil(t, nilClient.GetClient())
}

func TestRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
	require.NotNil(t, client)
	assert.False(t, client.IsEnabled())
}

func TestSubmitRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(nil, Config{SubmitLimitPerMin: 2, BurstMultiplier: 1}, metrics)
	logger := monitoring.NewLoggerTo(io.Discard, slog.LevelInfo)

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.POST("/api/submit", limiter.SubmitRateLimitMiddleware(logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post().Code)
	second := post()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "2", second.Header().Get("X-RateLimit-Limit"))

	blocked := post()
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit", body["category"])
	assert.Equal(t, "提交过于频繁，请稍后再试", body["error"])

	assert.EqualValues(t, 1, metrics.RateLimitIPBlocks)
	assert.Equal(t, int64(1), metrics.GetRateLimitStats()["endpoint_blocks"].(map[string]int64)["/api/submit"])
}
