package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/audit"
	"github.com/braianruaimi/YAvoyOk-sub002/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, max int) (*gin.Engine, *audit.Sink) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sink := audit.NewSink(zerolog.Nop(), 64)
	t.Cleanup(sink.Close)

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{
		MaxRequests: max,
		Window:      time.Minute,
	})

	r := gin.New()
	r.Use(Audit(sink), RateLimit(limiter, sink))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r, sink
}

func get(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	r, _ := newLimitedRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := get(r, "203.0.113.9")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := get(r, "203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"code":"rate_limited"`)
}

func TestRateLimitKeysByAddress(t *testing.T) {
	r, _ := newLimitedRouter(t, 1)

	require.Equal(t, http.StatusOK, get(r, "203.0.113.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "203.0.113.1").Code)

	// A different caller still has budget
	assert.Equal(t, http.StatusOK, get(r, "203.0.113.2").Code)
}

// Idle buckets must be evicted so the per-IP map cannot grow without
// bound; active callers survive the sweep.
func TestBurstBucketsEvictIdleEntries(t *testing.T) {
	b := newBurstBuckets(1, 2)
	b.idleTTL = 10 * time.Millisecond
	b.sweepEach = 0 // sweep on every lookup

	b.get("203.0.113.10")
	time.Sleep(20 * time.Millisecond)

	// Fresh caller triggers the sweep; the idle bucket goes away.
	b.get("203.0.113.11")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.NotContains(t, b.entries, "203.0.113.10")
	assert.Contains(t, b.entries, "203.0.113.11")
}

func TestBurstLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Burst(1, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, get(r, "203.0.113.3").Code)
	require.Equal(t, http.StatusOK, get(r, "203.0.113.3").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "203.0.113.3").Code)
}
