package txpipeline

import (
	"sort"
	"time"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

var epoch = time.Unix(0, 0).UTC()

// SortNewestFirst sorts txs in place by date, newest first. Undated
// transactions sort as the epoch. The sort is stable.
func SortNewestFirst(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return sortKey(txs[i]).After(sortKey(txs[j]))
	})
}

func sortKey(t domain.Transaction) time.Time {
	if !t.HasDate() {
		return epoch
	}
	return t.Date
}
