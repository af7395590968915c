// Package service provides the business logic layer (use cases).
// BackofficeService handles the backoffice operations: transactions,
// customer users, operations on transactions, backoffice users,
// anti-fraud rules, audit logs and the dashboard.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/payments-backoffice-go/internal/access"
	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
)

var tracer = otel.Tracer("service/backoffice")

// Query cache keys and prefixes.
const (
	keyAllTransactions    = "transactions:all"
	prefixTransactions    = "transactions:"
	prefixWalletTx        = "transactions:wallet:"
	prefixCardTx          = "transactions:card:"
	prefixUserSearch      = "users:search:"
	prefixWallets         = "wallets:"
	keyBackofficeUsers    = "backoffice-users"
	keyAntiFraudRules     = "antifraud:rules"
	defaultLanguage       = i18n.English
	accessDeniedMessageID = "errors.accessDenied"

	defaultFetchTimeout = 30 * time.Second
)

func walletTxKey(userID, walletID string) string {
	return prefixWalletTx + userID + ":" + walletID
}

func cardTxKey(cardID, userID string) string {
	return prefixCardTx + cardID + ":" + userID
}

// searchKey is stable for equal params regardless of map order.
func searchKey(params domain.UserSearchParams) string {
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	return prefixUserSearch + v.Encode()
}

// BackofficeService orchestrates the backoffice use cases over the
// backoffice API port.
type BackofficeService struct {
	api        port.BackofficeAPI
	cache      port.Cache[any]
	flight     singleflight.Group
	resolver   *access.Resolver
	gate       access.Gate
	settings   *SettingsService
	audit      port.AuditLog
	notifier   port.Notifier
	translator *i18n.Translator
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     *zap.Logger
	lang       string
	now        func() time.Time

	// fetchTimeout bounds a shared upstream fetch.
	fetchTimeout time.Duration
}

// Deps groups the collaborators of BackofficeService.
type Deps struct {
	API        port.BackofficeAPI
	Cache      port.Cache[any]
	Resolver   *access.Resolver
	Settings   *SettingsService
	Audit      port.AuditLog
	Notifier   port.Notifier
	Translator *i18n.Translator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// Language is used for notification texts. Defaults to English.
	Language string

	// FetchTimeout bounds one shared upstream fetch. Defaults to 30s.
	FetchTimeout time.Duration
}

// NewBackofficeService creates the backoffice service with all
// dependencies injected.
func NewBackofficeService(d Deps) *BackofficeService {
	lang := d.Language
	if lang == "" {
		lang = defaultLanguage
	}
	resolver := d.Resolver
	if resolver == nil {
		resolver = access.NewResolver()
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	translator := d.Translator
	if translator == nil {
		translator = i18n.Default()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	fetchTimeout := d.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &BackofficeService{
		api:        d.API,
		cache:      d.Cache,
		resolver:   resolver,
		settings:   d.Settings,
		audit:      d.Audit,
		notifier:   d.Notifier,
		translator: translator,
		validate:   newValidator(),
		metrics:    metrics,
		logger:     logger,
		lang:       lang,
		now:        time.Now,

		fetchTimeout: fetchTimeout,
	}
}

// ============================================================
// Access configuration
// ============================================================

// FieldConfig returns the resolved field configuration of p.
func (s *BackofficeService) FieldConfig(p domain.Principal) domain.FieldConfig {
	return s.resolver.ResolveCompanyConfig(p.CompanyID, p.Roles)
}

// Permissions returns the derived capabilities of p.
func (s *BackofficeService) Permissions(p domain.Principal) domain.Permissions {
	return s.gate.Permissions(p)
}

// Me describes the authenticated user.
func (s *BackofficeService) Me(p domain.Principal) domain.MeResponse {
	return domain.MeResponse{
		UserID:      p.UserID,
		Email:       p.Email,
		CompanyID:   p.CompanyID,
		Roles:       p.Roles.Strings(),
		Permissions: s.Permissions(p),
		FieldConfig: s.FieldConfig(p),
	}
}

// FieldPolicy combines p's configuration with their visibility overrides.
func (s *BackofficeService) FieldPolicy(ctx context.Context, p domain.Principal) *access.FieldPolicy {
	var overrides domain.FieldOverrides
	if s.settings != nil {
		o, err := s.settings.FieldOverrides(ctx, p.UserID)
		if err != nil {
			s.logger.Warn("field overrides unavailable", zap.String("user_id", p.UserID), zap.Error(err))
		}
		overrides = o
	}
	return access.NewFieldPolicy(s.FieldConfig(p), overrides)
}

// SearchForm instantiates the dynamic user search form for p.
func (s *BackofficeService) SearchForm(p domain.Principal, lang string) []domain.FormField {
	return access.BuildSearchForm(s.FieldConfig(p), s.translator, lang)
}

// ============================================================
// Internal helpers
// ============================================================

// cached serves key from the query cache, or fetches it once for all
// concurrent callers and stores the result. The shared fetch is detached
// from any single caller and bounded by fetchTimeout; each caller stops
// waiting when its own ctx is done.
func cached[T any](ctx context.Context, s *BackofficeService, key, op string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			s.metrics.IncrCacheHit(op)
			return t, nil
		}
	}
	s.metrics.IncrCacheMiss(op)

	ch := s.flight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		start := time.Now()
		t, err := fetch(fetchCtx)
		s.metrics.RecordDuration(op, time.Since(start))
		if err != nil {
			s.metrics.IncrExternalError(op)
			return nil, err
		}
		s.cache.Set(key, t)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return zero, &domain.ErrTimeout{Operation: op}
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("fetch shared", zap.String("key", key))
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// require gates an action. A denial queues one access-denied toast and is
// counted; nothing else happens.
func (s *BackofficeService) require(ctx context.Context, p domain.Principal, c domain.Capability) error {
	err := s.gate.Require(p, c)
	if err == nil {
		return nil
	}
	s.metrics.IncrAccessDenied(string(c))
	s.notify(ctx, p.UserID, domain.LevelError, accessDeniedMessageID)
	s.logger.Warn("access denied",
		zap.String("user_id", p.UserID),
		zap.String("capability", string(c)),
		zap.Strings("roles", p.Roles.Strings()),
	)
	return err
}

// fail reports an upstream failure to the user and returns err unchanged.
func (s *BackofficeService) fail(ctx context.Context, p domain.Principal, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("operation", op), zap.String("user_id", p.UserID), zap.Error(err))
	s.logger.Error("backoffice operation failed", fields...)
	s.notify(ctx, p.UserID, domain.LevelError, MessageKeyFor(err))
	return err
}

func (s *BackofficeService) succeed(ctx context.Context, p domain.Principal, messageKey string) {
	s.notify(ctx, p.UserID, domain.LevelSuccess, messageKey)
}

func (s *BackofficeService) notify(ctx context.Context, userID, level, key string) {
	if s.notifier == nil || userID == "" {
		return
	}
	s.notifier.Notify(ctx, domain.Notification{
		UserID:     userID,
		Level:      level,
		MessageKey: key,
		Message:    s.translator.Translate(key, s.lang),
	})
}

// record writes an audit entry. Audit failures are logged, not returned:
// the action already happened upstream.
func (s *BackofficeService) record(ctx context.Context, p domain.Principal, action, targetType, targetID string, details map[string]string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, domain.AuditEntry{
		ActorID:    p.UserID,
		ActorEmail: p.Email,
		CompanyID:  p.CompanyID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("audit record failed", zap.String("action", action), zap.String("target_id", targetID), zap.Error(err))
		return
	}
	s.metrics.IncrAudit(action)
}

// ============================================================
// Error messages
// ============================================================

// MessageKeyFor picks the translation key of the toast shown for an
// upstream failure. The error text is matched, so wrapped and remote
// errors map the same way.
func MessageKeyFor(err error) string {
	var forbidden *domain.ErrForbidden
	if errors.As(err, &forbidden) {
		return accessDeniedMessageID
	}
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return "errors.unavailable"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Not Found"):
		return "errors.notFound"
	case strings.Contains(msg, "Bad Request"):
		return "errors.badRequest"
	case strings.Contains(msg, "Unauthorized"):
		return "errors.unauthorized"
	case strings.Contains(msg, "Forbidden"):
		return "errors.forbidden"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return "errors.timeout"
	default:
		return "errors.generic"
	}
}
