package config

import (
	"testing"
	"time"
)

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("LINK_CACHE_TTL", "")
	t.Setenv("AFFILIATE_TAGS", "")

	cfg := Load()

	if cfg.Addr != ":9990" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr, ":9990")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: got %v", cfg.ShutdownTimeout)
	}
	if cfg.LinkCacheTTL != 5*time.Minute {
		t.Errorf("LinkCacheTTL: got %v", cfg.LinkCacheTTL)
	}
	if len(cfg.SeedTags) != 0 {
		t.Errorf("SeedTags should be empty, got %v", cfg.SeedTags)
	}
}

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("ADDR", ":18080")
	t.Setenv("LINK_CACHE_TTL", "2m")
	t.Setenv("LINK_CACHE_MAX_ITEMS", "500")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	if cfg.Addr != ":18080" {
		t.Errorf("Addr: got %q", cfg.Addr)
	}
	if cfg.LinkCacheTTL != 2*time.Minute {
		t.Errorf("LinkCacheTTL: got %v", cfg.LinkCacheTTL)
	}
	if cfg.LinkCacheMaxItems != 500 {
		t.Errorf("LinkCacheMaxItems: got %d", cfg.LinkCacheMaxItems)
	}
	if !cfg.KafkaEnabled || len(cfg.KafkaBrokers) != 2 {
		t.Errorf("kafka: %v %v", cfg.KafkaEnabled, cfg.KafkaBrokers)
	}
}

func TestParseSeedTags(t *testing.T) {
	got := parseSeedTags("amazon/US=mysite-20, ebay/US=5338177094 ,broken,also=bad,=")

	if len(got) != 2 {
		t.Fatalf("got %d entries: %v", len(got), got)
	}
	if got["amazon/US"] != "mysite-20" {
		t.Errorf("amazon/US: got %q", got["amazon/US"])
	}
	if got["ebay/US"] != "5338177094" {
		t.Errorf("ebay/US: got %q", got["ebay/US"])
	}
}
