package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Settings
// ============================================================

func getSettingsHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings")
		defer span.End()

		s, err := settings.Load(ctx, PrincipalFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, s)
	}
}

func saveSettingsHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/settings")
		defer span.End()

		var in domain.BackofficeSettings
		if !decodeJSON(w, r, &in) {
			return
		}

		saved, err := settings.Save(ctx, PrincipalFromContext(ctx).UserID, in)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}

type searchHistoryResponse struct {
	LastSearch domain.UserSearchParams     `json:"lastSearch"`
	History    []domain.SearchHistoryEntry `json:"history"`
}

func searchHistoryHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings/search-history")
		defer span.End()

		userID := PrincipalFromContext(ctx).UserID
		last, err := settings.LastSearch(ctx, userID)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}
		history, err := settings.SearchHistory(ctx, userID)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, searchHistoryResponse{LastSearch: last, History: history})
	}
}

func clearSearchHistoryHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/settings/search-history")
		defer span.End()

		if err := settings.ClearSearchHistory(ctx, PrincipalFromContext(ctx).UserID); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func fieldOverridesHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings/field-overrides")
		defer span.End()

		o, err := settings.FieldOverrides(ctx, PrincipalFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}
		if o == nil {
			o = domain.FieldOverrides{}
		}

		writeJSON(w, http.StatusOK, o)
	}
}

func saveFieldOverridesHandler(settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/settings/field-overrides")
		defer span.End()

		var in domain.FieldOverrides
		if !decodeJSON(w, r, &in) {
			return
		}

		saved, err := settings.SaveFieldOverrides(ctx, PrincipalFromContext(ctx).UserID, in)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}

// ============================================================
// Notifications
// ============================================================

// listNotificationsHandler returns the caller's toasts with messages
// rendered in the request language.
func listNotificationsHandler(notifier port.Notifier, tr *i18n.Translator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := tr.FromRequest(r)
		items := notifier.List(PrincipalFromContext(r.Context()).UserID)
		for i := range items {
			if items[i].MessageKey != "" {
				items[i].Message = tr.Translate(items[i].MessageKey, lang)
			}
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Notification]{Data: items, Total: len(items)})
	}
}

func clearNotificationsHandler(notifier port.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := notifier.Clear(PrincipalFromContext(r.Context()).UserID)
		writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
	}
}
