package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowConsumesBucket(t *testing.T) {
	l := NewLimiter(3)
	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d denied", i+1)
		}
	}
	ok, wait := l.Allow("1.2.3.4")
	if ok {
		t.Fatal("fourth request allowed")
	}
	if wait <= 0 {
		t.Errorf("wait = %v", wait)
	}

	// Separate clients have separate buckets.
	if ok, _ := l.Allow("5.6.7.8"); !ok {
		t.Error("fresh client denied")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := NewLimiter(60) // one token per second
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 60; i++ {
		l.Allow("c")
	}
	if ok, _ := l.Allow("c"); ok {
		t.Fatal("bucket not exhausted")
	}

	l.now = func() time.Time { return base.Add(2 * time.Second) }
	if ok, _ := l.Allow("c"); !ok {
		t.Error("no refill after wait")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := NewLimiter(1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Errorf("ClientIP with XFF = %q", got)
	}
}
