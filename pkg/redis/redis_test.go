package redis

import (
	"context"
	"testing"
	"time"

	"github.com/dmoralesf/valora/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), MarketDataRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != MarketDataRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", MarketDataRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	ctx := context.Background()

	// Set is a no-op when disabled
	if err := cache.Set(ctx, QuoteKey("AAPL"), map[string]float64{"price": 150}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Get always misses when disabled
	var dest map[string]float64
	found, err := cache.Get(ctx, QuoteKey("AAPL"), &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := QuoteKey("AAPL"); got != "quote:AAPL" {
		t.Errorf("QuoteKey() = %s", got)
	}
	if got := StatementsKey("MSFT"); got != "statements:MSFT" {
		t.Errorf("StatementsKey() = %s", got)
	}
	if got := ValuationKey("AAPL", "2026-08-30"); got != "valuation:AAPL:2026-08-30" {
		t.Errorf("ValuationKey() = %s", got)
	}
}
