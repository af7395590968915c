package txpipeline

import (
	"sort"
	"strings"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// Translator resolves display labels.
type Translator interface {
	Translate(key, lang string) string
}

// AvailableTypes returns the distinct resolved types of the unfiltered
// working set with their labels. Values are compared exactly, so codes that
// differ only by case are kept apart.
func AvailableTypes(txs []domain.Transaction, tr Translator, lang string) []domain.Option {
	return options(txs, func(t domain.Transaction) string { return t.Type }, "transaction.type.", tr, lang)
}

// AvailableStatuses returns the distinct statuses of the unfiltered working
// set with their labels.
func AvailableStatuses(txs []domain.Transaction, tr Translator, lang string) []domain.Option {
	return options(txs, func(t domain.Transaction) string { return t.Status }, "transaction.status.", tr, lang)
}

// TypeLabel returns the display label for a transaction type.
func TypeLabel(tr Translator, typ, lang string) string {
	return label(tr, "transaction.type.", typ, lang)
}

// StatusLabel returns the display label for a transaction status.
func StatusLabel(tr Translator, status, lang string) string {
	return label(tr, "transaction.status.", status, lang)
}

func options(txs []domain.Transaction, field func(domain.Transaction) string, prefix string, tr Translator, lang string) []domain.Option {
	seen := make(map[string]struct{})
	var values []string
	for _, t := range txs {
		v := field(t)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)

	out := make([]domain.Option, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Option{Value: v, Label: label(tr, prefix, v, lang)})
	}
	return out
}

// label falls back to the raw value for provider codes with no translation.
func label(tr Translator, prefix, value, lang string) string {
	if tr == nil {
		return value
	}
	key := prefix + value
	if l := tr.Translate(key, lang); l != key {
		return l
	}
	return value
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
