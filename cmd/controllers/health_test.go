package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(ctx context.Context) error {
	return s.err
}

func serveHealth(t *testing.T, pinger Pinger) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if err := RegisterHealthRoutes(router, pinger); err != nil {
		t.Fatalf("register health routes: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var resp HealthResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return recorder, resp
}

func TestHealthHandler(t *testing.T) {
	recorder, resp := serveHealth(t, stubPinger{})

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
}

func TestHealthHandlerDatabaseDown(t *testing.T) {
	recorder, resp := serveHealth(t, stubPinger{err: errors.New("connection refused")})

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, recorder.Code)
	}
	if resp.Status != "unavailable" {
		t.Fatalf("expected status unavailable, got %q", resp.Status)
	}
}

func TestRegisterHealthRoutesNil(t *testing.T) {
	if err := RegisterHealthRoutes(nil, stubPinger{}); err == nil {
		t.Fatalf("nil router: expected error")
	}
	if err := RegisterHealthRoutes(gin.New(), nil); err == nil {
		t.Fatalf("nil pinger: expected error")
	}
}
