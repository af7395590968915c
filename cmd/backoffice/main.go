package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/config"
	"github.com/boddenberg/payments-backoffice-go/internal/handler"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/audit"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/cache"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/client"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/mock"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/notify"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/resilience"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/store"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

func main() {
	// --- Config ---
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("api_mode", cfg.APIMode),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
		zap.Bool("redis_store", cfg.RedisAddr != ""),
		zap.Bool("postgres_audit", cfg.AuditDatabaseURL != ""),
	)

	ctx := context.Background()

	// --- Tracing ---
	endpoint := ""
	if cfg.TracingEnabled {
		endpoint = cfg.OTLPEndpoint
	}
	shutdownTracer, err := observability.InitTracer(ctx, endpoint, "payments-backoffice-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()
	pingers := map[string]port.Pinger{}

	// --- Backoffice API ---
	var api port.BackofficeAPI
	switch cfg.APIMode {
	case config.ModeLive:
		logger.Info("using live backoffice API", zap.String("url", cfg.APIURL))
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		cb := resilience.NewCircuitBreaker("backoffice-api", logger)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		live := client.NewBackofficeClient(httpClient, cfg.APIURL, cfg.APIToken, cb, resilienceCfg)
		pingers["backoffice-api"] = live
		api = live
	default:
		logger.Info("using mock backoffice API", zap.Int64("seed", cfg.MockSeed))
		api = mock.New(mock.Options{Seed: cfg.MockSeed, TransactionCount: cfg.MockTransactionCount}, logger)
	}

	// --- Preferences store ---
	var prefs port.PreferencesStore
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedis(store.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		pingers["redis"] = rs
		prefs = rs
	} else {
		logger.Warn("REDIS_ADDR not set, preferences are kept in memory")
		prefs = store.NewMemory()
	}

	// --- Audit log ---
	var auditLog port.AuditLog
	if cfg.AuditDatabaseURL != "" {
		db, err := audit.Connect(ctx, cfg.AuditDatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to audit database", zap.Error(err))
		}
		defer db.Close()
		pg := audit.NewPostgres(db, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to create audit schema", zap.Error(err))
		}
		pingers["postgres"] = pg
		auditLog = pg
	} else {
		logger.Warn("AUDIT_DATABASE_URL not set, audit trail is kept in memory")
		auditLog = audit.NewMemory()
	}

	// --- Rate limiting ---
	rate, err := limiter.NewRateFromFormatted(cfg.SearchRateLimit)
	if err != nil {
		logger.Fatal("invalid SEARCH_RATE_LIMIT", zap.String("value", cfg.SearchRateLimit), zap.Error(err))
	}
	searchLimiter := limiter.New(memory.NewStore(), rate)

	// --- Services ---
	translator := i18n.Default()
	queryCache := cache.New[any](cfg.CacheTTL)
	defer queryCache.Close()
	notifier := notify.NewCenter(notify.DefaultCapacity, metrics, logger)

	settingsSvc := service.NewSettingsService(prefs, service.DefaultSettings(cfg.DefaultLanguage), logger)
	backofficeSvc := service.NewBackofficeService(service.Deps{
		API:        api,
		Cache:      queryCache,
		Settings:   settingsSvc,
		Audit:      auditLog,
		Notifier:   notifier,
		Translator: translator,
		Metrics:    metrics,
		Logger:     logger,
		Language:   cfg.DefaultLanguage,

		// one shared fetch may go through every retry of the live client
		FetchTimeout: cfg.HTTPTimeout * time.Duration(cfg.MaxRetries+1),
	})
	authSvc := service.NewAuthService(api, prefs, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Backoffice:    backofficeSvc,
		Settings:      settingsSvc,
		Auth:          authSvc,
		Notifier:      notifier,
		Translator:    translator,
		Metrics:       metrics,
		Logger:        logger,
		Pingers:       pingers,
		SearchLimiter: searchLimiter,
		CORSOrigins:   cfg.CORSAllowedOrigins,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
