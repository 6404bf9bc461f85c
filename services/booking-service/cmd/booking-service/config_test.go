package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "8083" || cfg.Location != time.UTC {
		t.Fatalf("unexpected defaults: port=%s loc=%v", cfg.Port, cfg.Location)
	}
	if cfg.MinNotice != 24*time.Hour || cfg.Horizon != 90*24*time.Hour || cfg.BufferMinutes != 15 {
		t.Fatalf("unexpected booking window defaults: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigOverridesAndErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PROVIDER_TIMEZONE", "America/New_York")
	t.Setenv("MIN_NOTICE_MINUTES", "120")
	t.Setenv("HORIZON_DAYS", "30")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Location.String() != "America/New_York" || cfg.MinNotice != 2*time.Hour || cfg.Horizon != 30*24*time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	t.Setenv("PROVIDER_TIMEZONE", "Mars/Olympus")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected unknown timezone to fail")
	}

	t.Setenv("PROVIDER_TIMEZONE", "UTC")
	t.Setenv("JWT_SECRET", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected missing JWT_SECRET to fail")
	}
}
