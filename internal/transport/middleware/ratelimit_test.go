package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(5)(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiter_PortDoesNotResetBucket(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(2)(okHandler())

	hit(handler, "9.9.9.9:1000")
	hit(handler, "9.9.9.9:1001")

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "9.9.9.9:1002").Code)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(2)(okHandler())

	hit(handler, "1.1.1.1:1234")
	hit(handler, "1.1.1.1:1234")

	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	// 60 per minute = 1 per second
	handler := rl.Limit(60)(okHandler())

	for i := 0; i < 60; i++ {
		hit(handler, "3.3.3.3:1234")
	}
	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, http.StatusOK, hit(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_ZeroDisables(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	handler := rl.Limit(0)(okHandler())

	for i := 0; i < 100; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "4.4.4.4:1").Code)
	}
}

func TestRateLimiter_LimitsDoNotShareBuckets(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()
	strict := rl.Limit(1)(okHandler())
	loose := rl.Limit(10)(okHandler())

	assert.Equal(t, http.StatusOK, hit(strict, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(strict, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(loose, "10.0.0.1:1").Code)
}

func TestLimitGroup_EvictIdle(t *testing.T) {
	t.Parallel()
	g := &limitGroup{capacity: 1, perSec: 1.0 / 60, buckets: map[string]*bucket{}}
	now := time.Now()

	require.True(t, g.take("a", now.Add(-bucketIdle-time.Second)))
	require.True(t, g.take("b", now))
	g.evictIdle(now)

	assert.NotContains(t, g.buckets, "a")
	assert.Contains(t, g.buckets, "b")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
