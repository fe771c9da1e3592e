package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func sendFrom(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	if ip != "" {
		req.Header.Set(echo.HeaderXRealIP, ip)
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	h := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec, err := sendFrom(e, h, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	h := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		if _, err := sendFrom(e, h, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	_, err := sendFrom(e, h, "")
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	e := echo.New()
	h := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	_, _ = sendFrom(e, h, "")
	rec, err := sendFrom(e, h, "")
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryVal, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", rec.Header().Get("Retry-After"))
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	h := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := sendFrom(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("client a first request: expected no error, got %v", err)
	}
	if _, err := sendFrom(e, h, "10.0.0.1"); err == nil {
		t.Fatal("client a second request: expected rate limit error")
	}
	if _, err := sendFrom(e, h, "10.0.0.2"); err != nil {
		t.Fatalf("client b first request: expected no error, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestLimiterStore_ZeroRateRetryAfter(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1})
	now := time.Now()

	if ok, _ := store.allow("k", now); !ok {
		t.Fatal("expected the burst token to be granted")
	}
	ok, retry := store.allow("k", now)
	if ok {
		t.Fatal("expected refusal with zero refill rate")
	}
	if retry != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", retry)
	}
}

func TestRateLimit_ZeroRateRetryAfterHeader(t *testing.T) {
	e := echo.New()
	h := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1})

	if _, err := sendFrom(e, h, "10.0.0.9"); err != nil {
		t.Fatalf("first request: expected no error, got %v", err)
	}
	rec, err := sendFrom(e, h, "10.0.0.9")
	if err == nil {
		t.Fatal("second request: expected 429")
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
}

func TestLimiterStore_ReusesAndEvicts(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5, IdleTTL: time.Minute})
	now := time.Now()

	l1 := store.get("key1", now)
	if l1 != store.get("key1", now) {
		t.Error("expected same limiter for same key")
	}
	if l1 == store.get("key2", now) {
		t.Error("expected different limiter for different key")
	}

	later := now.Add(2 * time.Minute)
	store.get("key3", later)
	if n := store.len(); n != 1 {
		t.Errorf("expected idle clients evicted, %d remain", n)
	}
}
