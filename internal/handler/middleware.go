package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// JWTAuthMiddleware validates Bearer tokens and injects the principal into
// the request context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := authSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			p := claims.Principal()
			ctx := WithPrincipal(r.Context(), p)
			observability.SetRequestActor(ctx, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated backoffice user.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey).(domain.Principal)
	return p
}

// RateLimitMiddleware limits requests per authenticated user, falling back
// to the client IP.
func RateLimitMiddleware(l *limiter.Limiter, tr *i18n.Translator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := PrincipalFromContext(r.Context()).UserID
			if key == "" {
				key = r.RemoteAddr
			}

			lctx, err := l.Get(r.Context(), key)
			if err != nil {
				logger.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Warn("rate limit exceeded", zap.String("key", key), zap.Int64("limit", lctx.Limit))
				retry := time.Until(time.Unix(lctx.Reset, 0))
				if retry < time.Second {
					retry = time.Second
				}
				handleServiceError(w, r, &domain.ErrRateLimited{RetryAfter: retry}, tr, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
