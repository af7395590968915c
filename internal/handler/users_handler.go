package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Customers
// ============================================================

// searchParams collects the search form values from the query string.
// Control parameters such as lang are not search fields.
func searchParams(r *http.Request) domain.UserSearchParams {
	params := domain.UserSearchParams{}
	for k, v := range r.URL.Query() {
		if k == "lang" || len(v) == 0 {
			continue
		}
		if s := strings.TrimSpace(v[0]); s != "" {
			params[k] = s
		}
	}
	return params
}

func searchUsersHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/search")
		defer span.End()

		params := searchParams(r)
		span.SetAttributes(attribute.Int("search.params", len(params)))

		result, err := svc.SearchUsers(ctx, PrincipalFromContext(ctx), params)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func userWalletsHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/wallets")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		wallets, err := svc.ListUserWallets(ctx, PrincipalFromContext(ctx), userID)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Wallet]{Data: wallets, Total: len(wallets)})
	}
}

func blockUserHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/block")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.BlockRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := svc.BlockUser(ctx, PrincipalFromContext(ctx), userID, req); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: tr.Translate("notify.userBlocked", tr.FromRequest(r)),
			ID:      userID,
		})
	}
}

func unblockUserHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/unblock")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		if err := svc.UnblockUser(ctx, PrincipalFromContext(ctx), userID); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: tr.Translate("notify.userUnblocked", tr.FromRequest(r)),
			ID:      userID,
		})
	}
}
