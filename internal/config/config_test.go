package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EVENT_BUS", "")
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.ProfileCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttl %v", cfg.ProfileCacheTTL)
	}
	if cfg.TransitionRatePerMin != 30 {
		t.Fatalf("unexpected rate %d", cfg.TransitionRatePerMin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	t.Setenv("TRANSITION_RATE_PER_MIN", "0")
	t.Setenv("ENV", "production")

	cfg := Load()
	if cfg.StoreDriver != StoreMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("bad duration should fall back, got %v", cfg.JWTAccessTTL)
	}
	if cfg.TransitionRatePerMin != 0 {
		t.Fatalf("expected limiter disabled, got %d", cfg.TransitionRatePerMin)
	}
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Fatal("expected production env")
	}
}
