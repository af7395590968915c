package handler

import (
	"net/http"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Field configuration, permissions & translations
// ============================================================

type fieldConfigResponse struct {
	domain.FieldConfig
	// VisibleFields applies the user's visibility overrides.
	VisibleFields []string `json:"visibleFields"`
}

func fieldConfigHandler(svc *service.BackofficeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/config/fields")
		defer span.End()

		p := PrincipalFromContext(ctx)
		writeJSON(w, http.StatusOK, fieldConfigResponse{
			FieldConfig:   svc.FieldConfig(p),
			VisibleFields: svc.FieldPolicy(ctx, p).VisibleFields(),
		})
	}
}

func permissionsHandler(svc *service.BackofficeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Permissions(PrincipalFromContext(r.Context())))
	}
}

func searchFormHandler(svc *service.BackofficeService, tr *i18n.Translator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		fields := svc.SearchForm(p, tr.FromRequest(r))
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.FormField]{Data: fields, Total: len(fields)})
	}
}

// translationsHandler serves the full dictionary of the request language,
// with missing keys filled from the fallback language.
func translationsHandler(tr *i18n.Translator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := tr.FromRequest(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"language":     lang,
			"translations": tr.Dictionary(lang),
		})
	}
}
