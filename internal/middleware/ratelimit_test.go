package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d denied within limit", i)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request over limit was allowed")
	}
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	if !rl.allow("1.1.1.1") {
		t.Fatal("first client denied")
	}
	if !rl.allow("2.2.2.2") {
		t.Error("second client affected by first client's usage")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	defer rl.Stop()

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request denied")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("second request inside window was allowed")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.allow("1.2.3.4") {
		t.Error("request after window expiry was denied")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	h, _ := okHandler()
	limited := rl.Middleware(h)

	r := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	r.RemoteAddr = "9.9.9.9:1234"

	w := httptest.NewRecorder()
	limited.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	limited.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		want   string
	}{
		{
			name: "X-Forwarded-For single",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "10.0.0.1")
			},
			want: "10.0.0.1",
		},
		{
			name: "X-Forwarded-For takes leftmost",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
			},
			want: "10.0.0.1",
		},
		{
			name: "X-Real-IP",
			setup: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "10.0.0.2")
			},
			want: "10.0.0.2",
		},
		{
			name:  "RemoteAddr fallback strips port",
			setup: func(r *http.Request) { r.RemoteAddr = "10.0.0.3:5555" },
			want:  "10.0.0.3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
