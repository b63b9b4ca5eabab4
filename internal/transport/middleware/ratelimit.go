package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// bucketIdle is how long an unused bucket survives cleanup.
const bucketIdle = 10 * time.Minute

// RateLimiter hands out per-client token buckets. Every Limit call owns its
// own set of buckets, so two routes with different limits never share
// state. It guards the login endpoint against password guessing.
type RateLimiter struct {
	mu     sync.Mutex
	groups []*limitGroup
	stop   chan struct{}
	once   sync.Once
}

// limitGroup is the bucket set of one Limit middleware.
type limitGroup struct {
	capacity float64
	perSec   float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter starts a limiter whose idle buckets are dropped every
// cleanupInterval. Call Stop on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	go rl.sweep(cleanupInterval)
	return rl
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit returns middleware that allows maxPerMinute requests per client IP,
// refilling continuously. A non-positive limit disables limiting.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	if maxPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	g := &limitGroup{
		capacity: float64(maxPerMinute),
		perSec:   float64(maxPerMinute) / 60,
		buckets:  map[string]*bucket{},
	}
	rl.mu.Lock()
	rl.groups = append(rl.groups, g)
	rl.mu.Unlock()

	retryAfter := strconv.Itoa(60/maxPerMinute + 1)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.take(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take refills the client's bucket for the time since it was last seen and
// spends one token if available.
func (g *limitGroup) take(key string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.buckets[key]
	if !ok {
		b = &bucket{tokens: g.capacity, seen: now}
		g.buckets[key] = b
	}
	b.tokens = min(g.capacity, b.tokens+now.Sub(b.seen).Seconds()*g.perSec)
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (g *limitGroup) evictIdle(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, b := range g.buckets {
		if now.Sub(b.seen) > bucketIdle {
			delete(g.buckets, key)
		}
	}
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			groups := append([]*limitGroup(nil), rl.groups...)
			rl.mu.Unlock()
			for _, g := range groups {
				g.evictIdle(now)
			}
		}
	}
}

// clientIP strips the port from RemoteAddr so reconnects share a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
