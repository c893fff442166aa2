package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REPORT_CACHE_TTL", "90s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LedgerEntryPrefix != "JE" {
		t.Fatalf("expected default prefix, got %q", cfg.LedgerEntryPrefix)
	}
	if cfg.ReportCacheTTL != 90*time.Second {
		t.Fatalf("unexpected ttl %s", cfg.ReportCacheTTL)
	}
	if cfg.IdempotencyRetention != 168*time.Hour {
		t.Fatalf("unexpected retention %s", cfg.IdempotencyRetention)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production")
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{PGDSN: "postgres://x", LedgerEntryPrefix: "JE", LedgerRateLimit: 10}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := base
	bad.LedgerEntryPrefix = "J-E"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected prefix error")
	}
	bad = base
	bad.PGDSN = " "
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected dsn error")
	}
	bad = base
	bad.LedgerRateLimit = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected rate limit error")
	}
}
