package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeStatsPinger struct {
	fakePinger
}

func (f fakeStatsPinger) Stats() *PoolStats {
	return &PoolStats{TotalConns: 3, MaxConns: 20, Healthy: true}
}

func serveHealth(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := serveHealth(t, HealthHandler("sqlite", fakePinger{}))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
	if body["driver"] != "sqlite" {
		t.Errorf("expected driver sqlite, got %v", body["driver"])
	}
	if _, ok := body["pool"]; ok {
		t.Error("expected no pool stats for a backend without Stats()")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := serveHealth(t, HealthHandler("postgres", fakePinger{err: errors.New("connection refused")}))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected status unhealthy, got %v", body["status"])
	}
	if body["error"] != "connection refused" {
		t.Errorf("expected error message, got %v", body["error"])
	}
}

func TestHealthHandler_IncludesPoolStats(t *testing.T) {
	rec, body := serveHealth(t, HealthHandler("postgres", fakeStatsPinger{}))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	pool, ok := body["pool"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected pool stats object, got %v", body["pool"])
	}
	if pool["max_conns"] != float64(20) {
		t.Errorf("expected max_conns 20, got %v", pool["max_conns"])
	}
	if pool["healthy"] != true {
		t.Errorf("expected healthy pool, got %v", pool["healthy"])
	}
}

func TestHealthHandler_PoolMarkedUnhealthyOnPingFailure(t *testing.T) {
	p := fakeStatsPinger{fakePinger{err: errors.New("timeout")}}
	rec, body := serveHealth(t, HealthHandler("postgres", p))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	pool := body["pool"].(map[string]interface{})
	if pool["healthy"] != false {
		t.Errorf("expected pool healthy=false, got %v", pool["healthy"])
	}
}
