package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/response"
	"golang.org/x/time/rate"
)

// TenantRateLimiter keeps a token bucket per tenant. Bulk generation spends
// more tokens than a single request so one tenant cannot monopolise the
// numbering counters.
type TenantRateLimiter struct {
	mu       sync.Mutex
	buckets  map[uuid.UUID]*tenantBucket
	rate     rate.Limit
	burst    int
	bulkCost int
	cleanup  time.Duration
	idleTTL  time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type tenantBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// BulkCost is the number of tokens a bulk generation request spends on
	// top of the one every request pays.
	BulkCost        int
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		BulkCost:          10,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	}
}

// NewTenantRateLimiter creates a new per-tenant rate limiter. Call Stop to
// end its cleanup goroutine.
func NewTenantRateLimiter(cfg RateLimiterConfig) *TenantRateLimiter {
	if cfg.BulkCost < 1 {
		cfg.BulkCost = 1
	}
	if cfg.BulkCost > cfg.BurstSize {
		cfg.BulkCost = cfg.BurstSize
	}
	rl := &TenantRateLimiter{
		buckets:  make(map[uuid.UUID]*tenantBucket),
		rate:     rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.BurstSize,
		bulkCost: cfg.BulkCost,
		cleanup:  cfg.CleanupInterval,
		idleTTL:  cfg.EntryTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *TenantRateLimiter) limiterFor(tenantID uuid.UUID) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[tenantID]
	if !ok {
		b = &tenantBucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[tenantID] = b
	}
	b.lastSeen = rl.now()
	return b.limiter
}

func (rl *TenantRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *TenantRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *TenantRateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for tenantID, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, tenantID)
		}
	}
}

// Middleware limits ordinary requests, one token each.
func (rl *TenantRateLimiter) Middleware() gin.HandlerFunc {
	return rl.limit(1)
}

// Bulk limits bulk generation requests.
func (rl *TenantRateLimiter) Bulk() gin.HandlerFunc {
	return rl.limit(rl.bulkCost)
}

func (rl *TenantRateLimiter) limit(cost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := GetTenantID(c)
		if tenantID == uuid.Nil {
			c.Next()
			return
		}

		limiter := rl.limiterFor(tenantID)
		now := rl.now()
		reservation := limiter.ReserveN(now, cost)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))

		if !reservation.OK() {
			rejectRateLimited(c, time.Second)
			return
		}
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			rejectRateLimited(c, delay)
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(int(limiter.TokensAt(now)), 0)))
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, delay time.Duration) {
	retryAfter := max(int(math.Ceil(delay.Seconds())), 1)
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	response.ErrorWithCode(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	c.Abort()
}

// Stats reports the limiter's configuration and tracked tenants
func (rl *TenantRateLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_tenants":  len(rl.buckets),
		"rate_per_second": float64(rl.rate),
		"burst_size":      rl.burst,
		"bulk_cost":       rl.bulkCost,
	}
}
