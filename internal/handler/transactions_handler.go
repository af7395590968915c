package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/export"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Transactions
// ============================================================

// transactionQuery builds a listing query from the request. The user's
// settings supply the default page size and timezone; ?tz overrides the
// latter.
func transactionQuery(r *http.Request, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) (service.TransactionQuery, error) {
	p := PrincipalFromContext(r.Context())
	lang := tr.FromRequest(r)

	prefs := service.DefaultSettings(lang)
	if settings != nil {
		loaded, err := settings.Load(r.Context(), p.UserID)
		if err != nil {
			logger.Warn("settings unavailable, using defaults", zap.String("user_id", p.UserID), zap.Error(err))
		} else {
			prefs = loaded
		}
	}

	loc := prefs.Location()
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return service.TransactionQuery{}, &domain.ErrValidation{Field: "tz", Message: "Must be a valid IANA timezone"}
		}
		loc = l
	}

	spec, err := parseFilterSpec(r, loc)
	if err != nil {
		return service.TransactionQuery{}, err
	}

	page, pageSize := parsePagination(r)
	if pageSize == 0 {
		pageSize = prefs.PageSize
	}

	prevPageSize, _ := strconv.Atoi(r.URL.Query().Get("prevPageSize"))

	return service.TransactionQuery{
		Spec:         spec,
		Page:         page,
		PageSize:     pageSize,
		PrevPageSize: prevPageSize,
		Lang:         lang,
		Location:     loc,
	}, nil
}

func listTransactionsHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}
		span.SetAttributes(attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize))

		page, err := svc.ListTransactions(ctx, PrincipalFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func walletTransactionsHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/wallets/{walletId}/transactions")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		walletID := chi.URLParam(r, "walletId")
		span.SetAttributes(attribute.String("user.id", userID), attribute.String("wallet.id", walletID))

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		page, err := svc.WalletTransactions(ctx, PrincipalFromContext(ctx), userID, walletID, q)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func cardTransactionsHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/cards/{cardId}/transactions")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		cardID := chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("user.id", userID), attribute.String("card.id", cardID))

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		page, err := svc.CardTransactions(ctx, PrincipalFromContext(ctx), cardID, userID, q)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func transactionOptionsHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/options")
		defer span.End()

		opts, err := svc.TransactionOptions(ctx, PrincipalFromContext(ctx), tr.FromRequest(r))
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, opts)
	}
}

func transactionReportHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/report")
		defer span.End()

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		report, err := svc.TransactionReport(ctx, PrincipalFromContext(ctx), q.Spec)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

// exportTransactionsHandler renders the CSV into a buffer first so a failure
// still produces a JSON error instead of a truncated download.
func exportTransactionsHandler(svc *service.BackofficeService, settings *service.SettingsService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/export")
		defer span.End()

		q, err := transactionQuery(r, settings, tr, logger)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		var buf bytes.Buffer
		rows, err := svc.ExportTransactions(ctx, PrincipalFromContext(ctx), q, &buf)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}
		span.SetAttributes(attribute.Int("export.rows", rows))

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename("transactions", time.Now().In(q.Location))))
		w.Header().Set("X-Export-Rows", strconv.Itoa(rows))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// ============================================================
// Transaction operations
// ============================================================

func transactionRef(r *http.Request) service.TransactionRef {
	return service.TransactionRef{
		UserID:        chi.URLParam(r, "userId"),
		WalletID:      chi.URLParam(r, "walletId"),
		TransactionID: chi.URLParam(r, "transactionId"),
	}
}

func changeStatusHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/users/{userId}/wallets/{walletId}/transactions/{transactionId}/status")
		defer span.End()

		ref := transactionRef(r)
		var req domain.StatusChangeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := svc.ChangeTransactionStatus(ctx, PrincipalFromContext(ctx), ref, req); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: tr.Translate("notify.statusChanged", tr.FromRequest(r)),
			ID:      ref.TransactionID,
		})
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func cancelTransactionHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/wallets/{walletId}/transactions/{transactionId}/cancel")
		defer span.End()

		ref := transactionRef(r)
		var req cancelRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := svc.CancelTransaction(ctx, PrincipalFromContext(ctx), ref, req.Reason); err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: tr.Translate("notify.transactionCancelled", tr.FromRequest(r)),
			ID:      ref.TransactionID,
		})
	}
}

func compensateHandler(svc *service.BackofficeService, tr *i18n.Translator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/wallets/{walletId}/compensations")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		walletID := chi.URLParam(r, "walletId")

		var req domain.CompensationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := svc.Compensate(ctx, PrincipalFromContext(ctx), userID, walletID, req)
		if err != nil {
			handleServiceError(w, r, err, tr, logger)
			return
		}
		result.Message = tr.Translate("notify.compensated", tr.FromRequest(r))

		writeJSON(w, http.StatusCreated, result)
	}
}
