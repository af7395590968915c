package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Authentication
// ============================================================

func loginHandler(authSvc *service.AuthService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func refreshHandler(authSvc *service.AuthService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/refresh")
		defer span.End()

		var req domain.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := authSvc.Refresh(ctx, &req)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler(authSvc *service.AuthService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		p := PrincipalFromContext(ctx)
		if err := authSvc.Logout(ctx, p.UserID); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(svc *service.BackofficeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Me(PrincipalFromContext(r.Context())))
	}
}
