package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateLimiter struct {
	requests map[string]*clientRequest
	mu       sync.RWMutex
	limit    int
	window   time.Duration
}

type clientRequest struct {
	count     int
	resetTime time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		requests: make(map[string]*clientRequest),
		limit:    limit,
		window:   window,
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

// allow records a hit for key and reports whether it is admitted, along with
// the remaining window time when it is not.
func (rl *rateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.requests[key]
	now := time.Now()

	if !exists || now.After(client.resetTime) {
		rl.requests[key] = &clientRequest{
			count:     1,
			resetTime: now.Add(rl.window),
		}
		return true, 0
	}

	if client.count >= rl.limit {
		return false, client.resetTime.Sub(now)
	}

	client.count++
	return true, 0
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, client := range rl.requests {
		if now.After(client.resetTime) {
			delete(rl.requests, key)
		}
	}
}

var globalLimiter = newRateLimiter(100, time.Minute)

// RateLimiter is the API-wide limiter, keyed by client IP.
func RateLimiter() gin.HandlerFunc {
	return limitWith(globalLimiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// Website analysis is far more expensive than any other endpoint (outbound
// fetch + AI call), so it gets its own much tighter per-caller budget.
var analyzerLimiter = newRateLimiter(10, time.Minute)

// AnalyzerRateLimiter limits analysis requests per authenticated business.
// Must run after AuthMiddleware.
func AnalyzerRateLimiter() gin.HandlerFunc {
	return limitWith(analyzerLimiter, func(c *gin.Context) string {
		if id := c.GetString("business_id"); id != "" {
			return id
		}
		return c.ClientIP()
	})
}

func limitWith(rl *rateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		admitted, retryAfter := rl.allow(keyFunc(c))
		if !admitted {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
