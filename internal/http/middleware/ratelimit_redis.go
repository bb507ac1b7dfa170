package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"flip_royale/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter shares client with the middleware. A nil client, or one
// that fails to ping, leaves Redis rate limiting disabled.
func InitRedisRateLimiter(client *redis.Client) {
	redisClient = nil
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis rate limiter disabled", "error", err)
		return
	}
	redisClient = client
}

// RateLimit uses Redis when available and the in-process limiter otherwise
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := SimpleRateLimit(maxRequests, window)
	shared := RedisRateLimit(maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}
		shared(c)
	}
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		limited(c, key, maxRequests, window, c.FullPath())
	}
}

// SubjectRateLimit limits requests per authenticated service subject.
// Requires ServiceJWT to run before it.
func SubjectRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := c.GetString(SubjectKey)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized", "code": "authentication_failed", "retryable": false})
			return
		}
		if redisClient == nil {
			c.Next()
			return
		}

		key := "rl_sub:" + sub + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		limited(c, key, maxRequests, window, "sub:"+c.FullPath())
	}
}

// limited counts one hit on key and aborts the request past the limit.
// Redis errors fail open.
func limited(c *gin.Context, key string, maxRequests int, window time.Duration, endpoint string) {
	ctx := c.Request.Context()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"ok":          false,
			"error":       "rate limit exceeded",
			"code":        "rate_limited",
			"retryable":   true,
			"retry_after": int(window.Seconds()),
		})
		return
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
