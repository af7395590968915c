package txpipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// Matches reports whether t satisfies every set field of spec.
func Matches(t domain.Transaction, spec domain.FilterSpec) bool {
	if spec.StartDate != nil {
		if !t.HasDate() || t.Date.Before(StartOfDay(*spec.StartDate)) {
			return false
		}
	}
	if spec.EndDate != nil {
		if !t.HasDate() || t.Date.After(EndOfDay(*spec.EndDate)) {
			return false
		}
	}
	if len(spec.Types) > 0 && !contains(spec.Types, t.Type) {
		return false
	}
	if spec.Status != "" && t.Status != spec.Status {
		return false
	}
	if spec.Currency != "" && !strings.EqualFold(t.Currency, spec.Currency) {
		return false
	}
	if spec.ID != "" && !matchesID(t, spec.ID) {
		return false
	}
	if spec.UserType != "" && t.UserType != spec.UserType {
		return false
	}
	return true
}

// Filter returns the transactions matching spec, preserving input order.
func Filter(txs []domain.Transaction, spec domain.FilterSpec) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if Matches(t, spec) {
			out = append(out, t)
		}
	}
	return out
}

// StartOfDay returns midnight of d's day in d's location.
func StartOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// EndOfDay returns 23:59:59.999 of d's day in d's location.
func EndOfDay(d time.Time) time.Time {
	return StartOfDay(d).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func matchesID(t domain.Transaction, needle string) bool {
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(t.TransactionID), needle) {
		return true
	}
	return t.ID != 0 && strings.Contains(strconv.FormatInt(t.ID, 10), needle)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
