package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Backoffice users
// ============================================================

func listBackofficeUsersHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/backoffice-users")
		defer span.End()

		users, err := svc.ListBackofficeUsers(ctx, PrincipalFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.BackofficeUser]{Data: users, Total: len(users)})
	}
}

func createBackofficeUserHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/backoffice-users")
		defer span.End()

		var req domain.CreateBackofficeUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := svc.CreateBackofficeUser(ctx, PrincipalFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

func modifyRolesHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/backoffice-users/{userId}/roles")
		defer span.End()

		var req domain.ModifyRolesRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := svc.ModifyUserRoles(ctx, PrincipalFromContext(ctx), chi.URLParam(r, "userId"), req)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// ============================================================
// Anti-fraud rules
// ============================================================

func listAntiFraudRulesHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/antifraud/rules")
		defer span.End()

		rules, err := svc.ListAntiFraudRules(ctx, PrincipalFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.AntiFraudRule]{Data: rules, Total: len(rules)})
	}
}

func updateAntiFraudRuleHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/antifraud/rules/{ruleId}")
		defer span.End()

		var upd domain.AntiFraudRuleUpdate
		if !decodeJSON(w, r, &upd) {
			return
		}

		rule, err := svc.UpdateAntiFraudRule(ctx, PrincipalFromContext(ctx), chi.URLParam(r, "ruleId"), upd)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, rule)
	}
}

// ============================================================
// Audit & dashboard
// ============================================================

// auditFilter reads actorId, action, from, to (YYYY-MM-DD, inclusive) and
// limit. The company is always taken from the principal.
func auditFilter(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	f := domain.AuditFilter{
		ActorID: q.Get("actorId"),
		Action:  q.Get("action"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, &domain.ErrValidation{Field: "limit", Message: "Must be a positive number"}
		}
		f.Limit = n
	}
	if v := q.Get("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, &domain.ErrValidation{Field: "from", Message: "Must be a date (YYYY-MM-DD)"}
		}
		f.From = &d
	}
	if v := q.Get("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, &domain.ErrValidation{Field: "to", Message: "Must be a date (YYYY-MM-DD)"}
		}
		end := d.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, nil
}

func auditLogsHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/audit-logs")
		defer span.End()

		f, err := auditFilter(r)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		entries, err := svc.ListAuditLogs(ctx, PrincipalFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.AuditEntry]{Data: entries, Total: len(entries)})
	}
}

func dashboardHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		dash, err := svc.Dashboard(ctx, PrincipalFromContext(ctx), q.Spec)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, dash)
	}
}
