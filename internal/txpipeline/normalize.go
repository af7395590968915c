// Package txpipeline turns raw backoffice transactions into the filtered,
// sorted, aggregated and paginated views served to the backoffice screens.
//
// Everything here is pure and synchronous. Missing optional fields never
// cause an error: they fail filters and aggregate as "unknown" or zero.
package txpipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// dateLayouts are tried in order when parsing upstream dates. Layouts without
// a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps a raw upstream transaction into its canonical form.
func Normalize(raw domain.RawTransaction) domain.Transaction {
	t := domain.Transaction{
		ID:             raw.ID,
		TransactionID:  raw.TransactionID,
		Currency:       raw.Currency,
		Status:         raw.Status,
		Type:           ResolveType(raw),
		WalletID:       raw.WalletID,
		CustomerID:     raw.CustomerID,
		PaymentType:    infoString(raw.AdditionalInfo, domain.InfoPaymentType),
		Merchant:       infoString(raw.AdditionalInfo, domain.InfoMerchant),
		Category:       infoString(raw.AdditionalInfo, domain.InfoCategory),
		UserType:       infoString(raw.AdditionalInfo, domain.InfoUserType),
		AdditionalInfo: raw.AdditionalInfo,
	}
	if t.CustomerID == "" {
		t.CustomerID = raw.UserID
	}
	if raw.Amount != nil {
		t.Amount = *raw.Amount
	} else {
		t.Amount = decimal.Zero
	}
	if d, ok := ParseDate(raw.Date); ok {
		t.Date = d
	} else if d, ok := ParseDate(raw.CreatedAt); ok {
		t.Date = d
	}
	return t
}

// NormalizeAll normalizes every raw transaction, preserving order.
func NormalizeAll(raws []domain.RawTransaction) []domain.Transaction {
	out := make([]domain.Transaction, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}

// ResolveType picks the transaction type using the legacy field precedence:
// transactionType, transaction_type, type, additionalInfo.payment_type.
func ResolveType(raw domain.RawTransaction) string {
	for _, v := range []string{
		raw.TransactionType,
		raw.TransactionTypeSnake,
		raw.Type,
		infoString(raw.AdditionalInfo, domain.InfoPaymentType),
	} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return domain.TypeUnknown
}

// ParseDate parses an upstream date string. It reports false for empty or
// unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func infoString(info map[string]any, key string) string {
	v, ok := info[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
