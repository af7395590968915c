package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parsePagination reads page and pageSize (or page_size). A missing page
// size returns 0 so the caller can apply the user's default.
func parsePagination(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()
	page = 1
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	v := q.Get("pageSize")
	if v == "" {
		v = q.Get("page_size")
	}
	if v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

// parseFilterSpec reads the transaction filters from the query string.
// Dates are calendar days (YYYY-MM-DD) interpreted in loc.
func parseFilterSpec(r *http.Request, loc *time.Location) (domain.FilterSpec, error) {
	q := r.URL.Query()
	spec := domain.FilterSpec{
		Status:   strings.TrimSpace(q.Get("status")),
		Currency: strings.TrimSpace(q.Get("currency")),
		ID:       strings.TrimSpace(q.Get("id")),
		UserType: strings.TrimSpace(q.Get("userType")),
		Location: loc,
	}
	for _, raw := range append(q["types"], q["type"]...) {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				spec.Types = append(spec.Types, t)
			}
		}
	}
	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{{"startDate", &spec.StartDate}, {"endDate", &spec.EndDate}} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return spec, &domain.ErrValidation{Field: bound.name, Message: "Must be a date (YYYY-MM-DD)"}
		}
		*bound.dst = &d
	}
	if spec.StartDate != nil && spec.EndDate != nil && spec.EndDate.Before(*spec.StartDate) {
		return spec, &domain.ErrValidation{Field: "endDate", Message: "Must not be before startDate"}
	}
	return spec, nil
}

// handleServiceError maps domain errors to HTTP responses. The body carries
// the raw error plus a message translated to the request language.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, tr *i18n.Translator, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var rateLimited *domain.ErrRateLimited
	var external *domain.ErrExternalService

	status := http.StatusInternalServerError
	key := "errors.generic"
	resp := errorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		status, key = http.StatusBadRequest, "errors.validation"
		if validation.Field == "search" {
			key = "errors.searchTooBroad"
		}
		resp.Field = validation.Field
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		status, key = http.StatusForbidden, "errors.accessDenied"
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		status, key = http.StatusUnauthorized, "errors.unauthorized"
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		status, key = http.StatusNotFound, "errors.notFound"
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		status, key = http.StatusConflict, "errors.badRequest"
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())))
		status, key = http.StatusTooManyRequests, "errors.rateLimited"
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		status, key = http.StatusServiceUnavailable, "errors.unavailable"
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		status, key = http.StatusGatewayTimeout, "errors.timeout"
	case errors.As(err, &external):
		logger.Error("backoffice API error", zap.Error(err))
		status, key = http.StatusBadGateway, service.MessageKeyFor(err)
	default:
		logger.Error("unhandled error", zap.Error(err))
		resp.Error = "internal server error"
	}

	resp.Message = tr.Translate(key, tr.FromRequest(r))
	writeJSON(w, status, resp)
}
