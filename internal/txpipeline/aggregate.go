package txpipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// UnknownMonth is the month key of undated transactions.
const UnknownMonth = "unknown"

// Result is the output of FilterAndAggregate.
type Result struct {
	Filtered []domain.Transaction `json:"filtered"`
	ByType   []domain.TypeBucket  `json:"byType"`
	ByMonth  []domain.MonthBucket `json:"byMonth"`
}

// Total returns the summed amount of the filtered transactions.
func (r Result) Total() decimal.Decimal {
	return SumAmounts(r.Filtered)
}

// FilterAndAggregate filters txs by spec, sorts the survivors newest first
// and groups them by type and by month. The input slice is not modified.
//
// Months are computed in spec.Location, so the same transaction falls in
// the same month whether or not a date bound is set.
func FilterAndAggregate(txs []domain.Transaction, spec domain.FilterSpec) Result {
	filtered := Filter(txs, spec)
	SortNewestFirst(filtered)
	return Result{
		Filtered: filtered,
		ByType:   AggregateByType(filtered),
		ByMonth:  AggregateByMonth(filtered, specLocation(spec)),
	}
}

// AggregateByType counts and sums txs per resolved type, sorted by type.
func AggregateByType(txs []domain.Transaction) []domain.TypeBucket {
	idx := make(map[string]int)
	var out []domain.TypeBucket
	for _, t := range txs {
		i, ok := idx[t.Type]
		if !ok {
			i = len(out)
			idx[t.Type] = i
			out = append(out, domain.TypeBucket{Type: t.Type, Amount: decimal.Zero})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// AggregateByMonth counts and sums txs per (month, type), sorted by month
// then type. A nil loc keeps each date's own location.
func AggregateByMonth(txs []domain.Transaction, loc *time.Location) []domain.MonthBucket {
	type key struct{ month, typ string }
	idx := make(map[key]int)
	var out []domain.MonthBucket
	for _, t := range txs {
		k := key{month: MonthKey(t, loc), typ: t.Type}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, domain.MonthBucket{Month: k.month, Type: k.typ, Amount: decimal.Zero})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// MonthKey returns the "YYYY-MM" bucket of t, or UnknownMonth when undated.
func MonthKey(t domain.Transaction, loc *time.Location) string {
	if !t.HasDate() {
		return UnknownMonth
	}
	d := t.Date
	if loc != nil {
		d = d.In(loc)
	}
	return d.Format("2006-01")
}

// SumAmounts adds up the amounts of txs.
func SumAmounts(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// CountByStatus counts txs per exact status string.
func CountByStatus(txs []domain.Transaction) map[string]int {
	out := make(map[string]int)
	for _, t := range txs {
		out[t.Status]++
	}
	return out
}

// AmountByCurrency sums txs per upper-cased currency code.
func AmountByCurrency(txs []domain.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		c := upper(t.Currency)
		out[c] = out[c].Add(t.Amount)
	}
	return out
}

func specLocation(spec domain.FilterSpec) *time.Location {
	if spec.Location != nil {
		return spec.Location
	}
	return time.UTC
}
