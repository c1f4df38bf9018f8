package httpx

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	for i := 1; i <= 3; i++ {
		decision := rl.Allow("ip:1.2.3.4", 3, time.Minute)
		if !decision.allowed || decision.count != i {
			t.Fatalf("request %d: unexpected decision %+v", i, decision)
		}
	}
	if decision := rl.Allow("ip:1.2.3.4", 3, time.Minute); decision.allowed {
		t.Fatalf("fourth request should be limited")
	}
	if decision := rl.Allow("ip:5.6.7.8", 3, time.Minute); !decision.allowed {
		t.Fatalf("other keys keep their own budget")
	}

	short := rl.Allow("user:x", 1, 20*time.Millisecond)
	if !short.allowed {
		t.Fatalf("first request should pass")
	}
	time.Sleep(30 * time.Millisecond)
	if decision := rl.Allow("user:x", 1, 20*time.Millisecond); !decision.allowed || decision.count != 1 {
		t.Fatalf("window should reset, got %+v", decision)
	}
}

func TestRateLimitKeys(t *testing.T) {
	req := httptest.NewRequest("GET", "/expense", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	if key := rateLimitKeyIP(req); key != "ip:10.0.0.7" {
		t.Fatalf("unexpected ip key %q", key)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if key := rateLimitKeyIP(req); key != "ip:203.0.113.9" {
		t.Fatalf("forwarded ip ignored: %q", key)
	}
	if got := rateMetricKey("user:abc"); got != "user" {
		t.Fatalf("unexpected metric key %q", got)
	}
	if got := rateMetricKey(""); got != "unknown" {
		t.Fatalf("unexpected metric key %q", got)
	}
}

func TestItemID(t *testing.T) {
	cases := map[string]string{
		"/expense/abc":      "abc",
		"/api/expense/abc/": "abc",
		"/expense/":         "",
		"/expense/a/b":      "",
	}
	for path, want := range cases {
		if got := itemID(path, "expense"); got != want {
			t.Fatalf("itemID(%q) = %q, want %q", path, got, want)
		}
	}
}
