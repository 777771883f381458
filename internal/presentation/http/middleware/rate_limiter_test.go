package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, cfg RateLimiterConfig) (*gin.Engine, *TenantRateLimiter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rl := NewTenantRateLimiter(cfg)
	t.Cleanup(rl.Stop)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-Tenant")); err == nil {
			c.Set("tenant_id", id)
		}
	})
	router.Use(rl.Middleware())
	router.GET("/docs", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/docs/bulk", rl.Bulk(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, rl
}

func call(router *gin.Engine, method, path string, tenantID uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant", tenantID.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func slowConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         3,
		BulkCost:          2,
		CleanupInterval:   time.Hour,
		EntryTTL:          time.Hour,
	}
}

func TestTenantRateLimiter_PerTenantBuckets(t *testing.T) {
	router, rl := newLimitedRouter(t, slowConfig())
	a, b := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call(router, http.MethodGet, "/docs", a).Code)
	}

	rec := call(router, http.MethodGet, "/docs", a)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/docs", b).Code, "other tenants keep their own bucket")
	assert.Equal(t, 2, rl.Stats()["active_tenants"])
}

func TestTenantRateLimiter_BulkCostsMore(t *testing.T) {
	router, _ := newLimitedRouter(t, slowConfig())
	tenant := uuid.New()

	// one token for the request plus two for the bulk weight
	require.Equal(t, http.StatusOK, call(router, http.MethodPost, "/docs/bulk", tenant).Code)
	assert.Equal(t, http.StatusTooManyRequests, call(router, http.MethodPost, "/docs/bulk", tenant).Code)
}

func TestTenantRateLimiter_RejectedBulkWeightIsReturned(t *testing.T) {
	router, _ := newLimitedRouter(t, slowConfig())
	tenant := uuid.New()

	require.Equal(t, http.StatusOK, call(router, http.MethodGet, "/docs", tenant).Code)
	// the request token is spent, the bulk weight is not
	assert.Equal(t, http.StatusTooManyRequests, call(router, http.MethodPost, "/docs/bulk", tenant).Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/docs", tenant).Code)
	assert.Equal(t, http.StatusTooManyRequests, call(router, http.MethodGet, "/docs", tenant).Code)
}

func TestTenantRateLimiter_NoTenantPassesThrough(t *testing.T) {
	router, rl := newLimitedRouter(t, slowConfig())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/docs", uuid.Nil).Code)
	}
	assert.Equal(t, 0, rl.Stats()["active_tenants"])
}

func TestTenantRateLimiter_EvictIdle(t *testing.T) {
	_, rl := newLimitedRouter(t, slowConfig())
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.limiterFor(uuid.New())
	now = now.Add(2 * time.Hour)
	rl.limiterFor(uuid.New())
	rl.evictIdle()

	assert.Equal(t, 1, rl.Stats()["active_tenants"])
}
