package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles chat traffic per client IP with a token bucket. The
// widget is public and unauthenticated, so the IP is the only identity we
// have to limit on.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	perSec   float64
	capacity int
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows perSec requests per second per IP, with capacity
// extra requests of burst headroom. Idle client entries are evicted in the
// background.
func NewRateLimiter(perSec float64, capacity int) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		perSec:   perSec,
		capacity: capacity,
	}
	go rl.evictIdle()
	return rl
}

// Allow reports whether a request from ip may proceed, consuming one token
// when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok {
		// New clients start with a full bucket.
		c = &clientBucket{tokens: float64(rl.capacity), seen: now}
		rl.clients[ip] = c
	}

	c.tokens += now.Sub(c.seen).Seconds() * rl.perSec
	if max := float64(rl.capacity); c.tokens > max {
		c.tokens = max
	}
	c.seen = now

	if c.tokens < 1 {
		return false
	}
	c.tokens--
	return true
}

func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		idleBefore := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for ip, c := range rl.clients {
			if c.seen.Before(idleBefore) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-limit requests with 429. The client IP comes from
// X-Real-Ip when chi's RealIP middleware has set it, falling back to the
// connection address.
func RateLimit(perSec float64, capacity int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSec, capacity)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.Header.Get("X-Real-Ip")
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.Allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
