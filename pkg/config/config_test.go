package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to be dev, got %q", cfg.App.Env)
	}
	if cfg.Cart.StorageKey != "cartItems" {
		t.Fatalf("unexpected cart storage key %q", cfg.Cart.StorageKey)
	}
	if cfg.Cart.FallbackName != "Unknown Item" {
		t.Fatalf("unexpected fallback name %q", cfg.Cart.FallbackName)
	}
	if cfg.Cart.SessionHeader != "X-Cart-Session" {
		t.Fatalf("unexpected session header %q", cfg.Cart.SessionHeader)
	}
	if got := cfg.Promotions.PollInterval; got != 30*time.Second {
		t.Fatalf("expected poll interval 30s, got %v", got)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics path %q", cfg.Metrics.Path)
	}
	if len(cfg.App.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.Checkout.RateLimitWindow != time.Minute || cfg.Checkout.RateLimitPerSession != 5 {
		t.Fatalf("unexpected checkout rate limits %+v", cfg.Checkout)
	}
	if cfg.Checkout.Enabled() {
		t.Fatalf("checkout should be disabled without a session url")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisStorageRequiresRedis(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, CartStorageRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis storage without redis url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cart.Backend() != CartStorageRedis {
		t.Fatalf("expected redis backend, got %q", cfg.Cart.Backend())
	}
}

func TestLoad_PubSubFeedRequiresSubscription(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPromotionsFeed, PromotionsFeedPubSub)
	t.Setenv(EnvGCPProjectID, "project-123")

	if _, err := Load(); err == nil {
		t.Fatal("expected pubsub feed without subscription to fail")
	}

	t.Setenv(EnvPubSubPromotionsSub, "promotions-sub")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, "floppy")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown cart storage to fail")
	}

	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown db driver to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvDBDSN, "file::memory:?cache=shared")
	t.Setenv(EnvDBDriver, DBDriverSQLite)
	t.Setenv(EnvCartStorage, CartStorageMemory)
	t.Setenv(EnvPromotionsFeed, PromotionsFeedPoll)
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
