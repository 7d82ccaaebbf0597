package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration // how often idle buckets are swept
	EntryTTL          time.Duration // idle time after which a bucket is dropped
}

func (cfg RateLimiterConfig) withDefaults() RateLimiterConfig {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 20
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 10 * time.Minute
	}
	return cfg
}

// BusinessRateLimiter keeps one token bucket per business so a busy shop
// cannot starve the shared backend. Calls made without a business are
// bucketed per operator.
type BusinessRateLimiter struct {
	cfg RateLimiterConfig

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	lastSeen time.Time
}

// NewBusinessRateLimiter starts a limiter and its sweeper goroutine; call
// Stop to end the sweeper.
func NewBusinessRateLimiter(cfg RateLimiterConfig) *BusinessRateLimiter {
	rl := &BusinessRateLimiter{
		cfg:     cfg.withDefaults(),
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *BusinessRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *BusinessRateLimiter) take(key string) (*bucket, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b, b.Allow()
}

func (rl *BusinessRateLimiter) sweep() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-rl.cfg.EntryTTL)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware applies the limit. It reads the operator and business, so it
// must be mounted after AuthMiddleware and BusinessMiddleware.
func (rl *BusinessRateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(rl.cfg.BurstSize)

	return func(c *gin.Context) {
		key := limiterKey(c)
		if key == "" {
			c.Next()
			return
		}

		b, allowed := rl.take(key)
		c.Header("X-RateLimit-Limit", limit)
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many billing requests for this business, slow down",
				"error":   "too_many_requests",
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(b.Tokens())))
		c.Next()
	}
}

func limiterKey(c *gin.Context) string {
	if id := GetBusinessID(c); id != nil {
		return "business:" + strconv.FormatInt(*id, 10)
	}
	if user := GetUserEmail(c); user != "" {
		return "user:" + user
	}
	return ""
}

// Stats reports the limiter settings and how many buckets are live
func (rl *BusinessRateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	active := len(rl.buckets)
	rl.mu.Unlock()

	return map[string]any{
		"active_keys":     active,
		"rate_per_second": rl.cfg.RequestsPerSecond,
		"burst_size":      rl.cfg.BurstSize,
		"entry_ttl_ms":    rl.cfg.EntryTTL.Milliseconds(),
	}
}
