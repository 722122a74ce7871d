package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", now) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key", now) {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other", now) {
		t.Error("a different key has its own bucket")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	if !rl.Allow("key", now) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key", now.Add(100*time.Millisecond)) {
		t.Error("should be blocked before a token refills")
	}
	if !rl.Allow("key", now.Add(600*time.Millisecond)) {
		t.Error("should be allowed after a token refills")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, 5)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	rl.Allow("stale", now)
	rl.Allow("active", now.Add(2*time.Minute))

	rl.Cleanup(now.Add(4*time.Minute), 3*time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["stale"]; ok {
		t.Error("stale entry should have been cleaned up")
	}
	if _, ok := rl.visitors["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	keyFunc := func(r *http.Request) string { return "test" }

	handler := RateLimit(rl, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scan", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scan", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.7:5123", "10.0.0.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.4", "X-Forwarded-For": "203.0.113.9"}, "10.0.0.1:80", "198.51.100.4"},
		{"bare remote", nil, "kiosk", "kiosk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := RealIP(r); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
