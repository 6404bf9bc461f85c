package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
)

type appConfig struct {
	Service            string
	Port               string
	ProviderID         string
	Location           *time.Location
	MinNotice          time.Duration
	Horizon            time.Duration
	BufferMinutes      int
	StorageTimeout     time.Duration
	RetryMaxTries      int
	DatabaseURL        string
	AutoMigrate        bool
	JWTSecret          string
	KafkaBrokers       []string
	OutboxPollEvery    time.Duration
	RedisAddr          string
	RateLimitPerMinute int
	CORSOrigins        []string
}

func loadConfig() (appConfig, error) {
	cfg := appConfig{
		Service:      config.String("SERVICE_NAME", "booking-service"),
		ProviderID:   config.String("PROVIDER_ID", "provider-1"),
		DatabaseURL:  config.String("DATABASE_URL", ""),
		AutoMigrate:  config.Bool("AUTO_MIGRATE", false),
		KafkaBrokers: config.List("KAFKA_BROKERS"),
		RedisAddr:    config.String("REDIS_ADDR", ""),
		CORSOrigins:  config.List("CORS_ALLOWED_ORIGINS"),
	}
	var err error
	if cfg.Port, err = config.Port("PORT", "8083"); err != nil {
		return appConfig{}, err
	}
	if cfg.JWTSecret, err = config.RequiredString("JWT_SECRET"); err != nil {
		return appConfig{}, err
	}

	tz := config.String("PROVIDER_TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return appConfig{}, fmt.Errorf("PROVIDER_TIMEZONE: %w", err)
	}
	if cfg.MinNotice, err = config.Minutes("MIN_NOTICE_MINUTES", availability.DefaultMinNotice); err != nil {
		return appConfig{}, err
	}
	horizonDays, err := config.Int("HORIZON_DAYS", int(availability.DefaultHorizon/(24*time.Hour)), 1)
	if err != nil {
		return appConfig{}, err
	}
	cfg.Horizon = time.Duration(horizonDays) * 24 * time.Hour
	if cfg.BufferMinutes, err = config.Int("BUFFER_MINUTES", 15, 0); err != nil {
		return appConfig{}, err
	}
	if cfg.StorageTimeout, err = config.Duration("STORAGE_TIMEOUT", 5*time.Second); err != nil {
		return appConfig{}, err
	}
	if cfg.RetryMaxTries, err = config.Int("RETRY_MAX_TRIES", 3, 1); err != nil {
		return appConfig{}, err
	}
	if cfg.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_EVERY", 2*time.Second); err != nil {
		return appConfig{}, err
	}
	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 30, 1); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}
