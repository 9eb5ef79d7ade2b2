// Package ratelimit provides per-client request limiting for the HTTP
// surface. Each route gets its own limiter; clients are keyed by IP.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// staleAfter is how long an idle client's bucket is kept.
const staleAfter = 10 * time.Minute

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter is a token-bucket limiter keyed by client. Buckets refill
// continuously at perMinute tokens per minute and cap at perMinute.
type Limiter struct {
	mu        sync.Mutex
	perMinute float64
	buckets   map[string]*bucket
	lastPrune time.Time
	now       func() time.Time
}

// NewLimiter creates a limiter allowing perMinute requests per client per
// minute.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Limiter{
		perMinute: float64(perMinute),
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// Allow consumes one token for the key. When the bucket is empty it returns
// false and the wait until the next token.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.perMinute, lastSeen: now}
		l.buckets[key] = b
	}

	// Continuous refill since last use.
	elapsed := now.Sub(b.lastSeen).Minutes()
	b.tokens += elapsed * l.perMinute
	if b.tokens > l.perMinute {
		b.tokens = l.perMinute
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	wait := time.Duration((1 - b.tokens) / l.perMinute * float64(time.Minute))
	return false, wait
}

func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < staleAfter {
		return
	}
	l.lastPrune = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > staleAfter {
			delete(l.buckets, key)
		}
	}
}

// Middleware wraps a handler with the limiter, keyed by client IP. Rejected
// requests get a 429 with a Retry-After header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.Allow(ClientIP(r))
		if !ok {
			seconds := int(wait.Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":"rate limit exceeded, retry in %ds"}`, seconds)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address, honoring X-Forwarded-For from a
// fronting proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
