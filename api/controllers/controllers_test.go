package controllers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/logger"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReadySkipsNilPingers(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	handler := HealthReady(cfg, logger.Nop(), map[string]Pinger{
		"db":    nil,
		"redis": pingFunc(func(context.Context) error { return nil }),
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"db"`) {
		t.Fatalf("nil pinger should not be reported: %s", rec.Body.String())
	}
}

func TestHealthReadyFailure(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	handler := HealthReady(cfg, logger.Nop(), map[string]Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("refused") }),
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := rec.Header().Get(envHeader); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHandlersWithoutServiceAnswerInternal(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"get":        CartGet(nil, nil),
		"totals":     CartTotals(nil, nil),
		"promotions": PromotionsList(nil, nil),
	} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", name, rec.Code)
		}
	}
}

func TestFormatFloatClampsNonFinite(t *testing.T) {
	if got := formatFloat(math.NaN()); got != "0.00" {
		t.Fatalf("expected 0.00 for NaN, got %q", got)
	}
	if got := formatFloat(3); got != "3.00" {
		t.Fatalf("expected 3.00, got %q", got)
	}
}
