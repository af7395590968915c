package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a structured zap logger from a level name. Unknown or
// empty levels log at info. Debug switches to a colorized console encoder.
func NewLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl == zapcore.DebugLevel {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

type actorKey struct{}

// requestActor is filled by the auth middleware further down the chain and
// read back when the access log line is written.
type requestActor struct {
	mu     sync.Mutex
	userID string
}

// SetRequestActor records the authenticated backoffice user of the request
// for the access log. It is a no-op outside ZapLoggerMiddleware.
func SetRequestActor(ctx context.Context, userID string) {
	a, ok := ctx.Value(actorKey{}).(*requestActor)
	if !ok {
		return
	}
	a.mu.Lock()
	a.userID = userID
	a.mu.Unlock()
}

// ZapLoggerMiddleware writes one access log line per request: Warn for
// 4xx, Error for 5xx, Info otherwise. The line carries the chi route
// pattern, so customer and wallet ids stay out of the route field, and the
// backoffice user that made the call.
func ZapLoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			actor := &requestActor{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(context.WithValue(r.Context(), actorKey{}, actor))

			defer func() {
				status := ww.Status()
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				}
				if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
					fields = append(fields, zap.String("route", rc.RoutePattern()))
				}
				actor.mu.Lock()
				if actor.userID != "" {
					fields = append(fields, zap.String("actor_id", actor.userID))
				}
				actor.mu.Unlock()
				if lang := r.Header.Get("Accept-Language"); lang != "" {
					fields = append(fields, zap.String("accept_language", lang))
				}

				switch {
				case status >= 500:
					logger.Error("http request", fields...)
				case status >= 400:
					logger.Warn("http request", fields...)
				default:
					logger.Info("http request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
