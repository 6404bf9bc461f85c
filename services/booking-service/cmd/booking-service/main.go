package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage/memstore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// backend bundles the storage the engine runs on.
type backend struct {
	ledger storage.Ledger
	rules  storage.RuleStore
	types  storage.TypeStore
	outbox outbox.Store
	checks []runtime.ReadyCheck
	close  func()
}

func openBackend(ctx context.Context, cfg appConfig, logger *slog.Logger) (backend, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory ledger")
		store := memstore.New()
		return backend{ledger: store, rules: store, types: store, outbox: store, close: func() {}}, nil
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{StatementTimeout: cfg.StorageTimeout})
	if err != nil {
		return backend{}, err
	}
	if cfg.AutoMigrate {
		n, err := storage.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return backend{}, err
		}
		logger.Info("migrations applied", "count", n)
	}
	outboxRepo := outbox.NewRepository(pool)
	return backend{
		ledger: storage.NewPostgresLedger(pool, outboxRepo),
		rules:  storage.NewRuleRepository(pool),
		types:  storage.NewTypeRepository(pool),
		outbox: outboxRepo,
		checks: []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
		close:  pool.Close,
	}, nil
}

func newLimiter(cfg appConfig, logger *slog.Logger) (httpx.Limiter, []runtime.ReadyCheck, func()) {
	if cfg.RedisAddr == "" {
		return httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute), nil, func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	check := runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
	logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
	return httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.Service+":ratelimit"), []runtime.ReadyCheck{check}, func() { _ = rdb.Close() }
}

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}
	metrics.Register()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		panic(err)
	}
	defer be.close()
	checks := be.checks

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkax.NewWriter(cfg.KafkaBrokers, "")
		defer func() { _ = writer.Close() }()
		publisher := outbox.NewPublisher(be.outbox, writer, logger, outbox.PublisherConfig{
			PollEvery: cfg.OutboxPollEvery,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; lifecycle events stay in the outbox")
	}

	limiter, limiterChecks, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()
	checks = append(checks, limiterChecks...)

	resolver := availability.NewResolver(be.rules, be.types, be.ledger, availability.Config{
		Location:  cfg.Location,
		MinNotice: cfg.MinNotice,
		Horizon:   cfg.Horizon,
	})
	mgr := booking.NewManager(booking.Config{
		ProviderID:     cfg.ProviderID,
		BufferMinutes:  cfg.BufferMinutes,
		StorageTimeout: cfg.StorageTimeout,
		RetryMaxTries:  uint(cfg.RetryMaxTries),
	}, booking.Deps{
		Ledger:    be.ledger,
		Rules:     be.rules,
		Types:     be.types,
		Resolver:  resolver,
		Logger:    logger,
		Notifiers: []booking.Notifier{booking.LogNotifier(logger)},
	})

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.Handler())
	handlers.Routes(mux,
		handlers.NewBookingHandler(mgr, logger, cfg.Location),
		handlers.NewStaffHandler(mgr, logger),
		httpx.RateLimit(limiter, logger, true),
		handlers.RequireStaff(cfg.JWTSecret, cfg.ProviderID),
	)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(cfg.CORSOrigins)),
		httpx.WithBodyLimit(64<<10),
		httpx.WithTimeout(cfg.StorageTimeout*time.Duration(cfg.RetryMaxTries)+time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "provider_id", cfg.ProviderID, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
