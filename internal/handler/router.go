package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Backoffice *service.BackofficeService
	Settings   *service.SettingsService
	Auth       *service.AuthService
	Notifier   port.Notifier
	Translator *i18n.Translator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// Pingers are checked by /healthz, keyed by dependency name.
	Pingers map[string]port.Pinger
	// SearchLimiter throttles user searches. Nil disables limiting.
	SearchLimiter *limiter.Limiter
	CORSOrigins   []string
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the backoffice SPA.
func NewRouter(d Deps) http.Handler {
	if d.Translator == nil {
		d.Translator = i18n.Default()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetrics()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	logger, tr := d.Logger, d.Translator

	r := chi.NewRouter()

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mw := httpmetrics.New(httpmetrics.Config{
		Recorder: metricsprom.NewRecorder(metricsprom.Config{Registry: d.Metrics.Registry}),
	})

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return std.Handler("", mw, next)
	})
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Pingers, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Auth (public)
		// =============================================
		r.Post("/auth/login", loginHandler(d.Auth, tr, logger))
		r.Post("/auth/refresh", refreshHandler(d.Auth, tr, logger))

		r.Get("/config/translations", translationsHandler(tr))
		r.Get("/metrics/summary", metricsSummaryHandler(d.Metrics))

		// =============================================
		// Protected routes (require JWT)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, logger))

			r.Post("/auth/logout", logoutHandler(d.Auth, tr, logger))
			r.Get("/me", meHandler(d.Backoffice))

			// Field config & permissions
			r.Get("/config/fields", fieldConfigHandler(d.Backoffice))
			r.Get("/config/permissions", permissionsHandler(d.Backoffice))
			r.Get("/config/search-form", searchFormHandler(d.Backoffice, tr))

			// Customers
			r.Group(func(r chi.Router) {
				if d.SearchLimiter != nil {
					r.Use(RateLimitMiddleware(d.SearchLimiter, tr, logger))
				}
				r.Get("/users/search", searchUsersHandler(d.Backoffice, tr, logger))
			})
			r.Get("/users/{userId}/wallets", userWalletsHandler(d.Backoffice, tr, logger))
			r.Post("/users/{userId}/block", blockUserHandler(d.Backoffice, tr, logger))
			r.Post("/users/{userId}/unblock", unblockUserHandler(d.Backoffice, tr, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(d.Backoffice, d.Settings, tr, logger))
			r.Get("/transactions/report", transactionReportHandler(d.Backoffice, d.Settings, tr, logger))
			r.Get("/transactions/export", exportTransactionsHandler(d.Backoffice, d.Settings, tr, logger))
			r.Get("/transactions/options", transactionOptionsHandler(d.Backoffice, tr, logger))
			r.Get("/users/{userId}/wallets/{walletId}/transactions", walletTransactionsHandler(d.Backoffice, d.Settings, tr, logger))
			r.Get("/users/{userId}/cards/{cardId}/transactions", cardTransactionsHandler(d.Backoffice, d.Settings, tr, logger))
			r.Patch("/users/{userId}/wallets/{walletId}/transactions/{transactionId}/status", changeStatusHandler(d.Backoffice, tr, logger))
			r.Post("/users/{userId}/wallets/{walletId}/transactions/{transactionId}/cancel", cancelTransactionHandler(d.Backoffice, tr, logger))
			r.Post("/users/{userId}/wallets/{walletId}/compensations", compensateHandler(d.Backoffice, tr, logger))

			// Administration
			r.Get("/backoffice-users", listBackofficeUsersHandler(d.Backoffice, tr, logger))
			r.Post("/backoffice-users", createBackofficeUserHandler(d.Backoffice, tr, logger))
			r.Put("/backoffice-users/{userId}/roles", modifyRolesHandler(d.Backoffice, tr, logger))
			r.Get("/antifraud/rules", listAntiFraudRulesHandler(d.Backoffice, tr, logger))
			r.Put("/antifraud/rules/{ruleId}", updateAntiFraudRuleHandler(d.Backoffice, tr, logger))
			r.Get("/audit-logs", auditLogsHandler(d.Backoffice, tr, logger))
			r.Get("/dashboard", dashboardHandler(d.Backoffice, d.Settings, tr, logger))

			// Settings
			r.Get("/settings", getSettingsHandler(d.Settings, tr, logger))
			r.Put("/settings", saveSettingsHandler(d.Settings, tr, logger))
			r.Get("/settings/search-history", searchHistoryHandler(d.Settings, tr, logger))
			r.Delete("/settings/search-history", clearSearchHistoryHandler(d.Settings, tr, logger))
			r.Get("/settings/field-overrides", fieldOverridesHandler(d.Settings, tr, logger))
			r.Put("/settings/field-overrides", saveFieldOverridesHandler(d.Settings, tr, logger))

			// Notifications
			r.Get("/notifications", listNotificationsHandler(d.Notifier, tr))
			r.Delete("/notifications", clearNotificationsHandler(d.Notifier))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(pingers map[string]port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "backoffice-bff", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		for name, p := range pingers {
			start := time.Now()
			err := p.Ping(ctx)
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: name, Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
