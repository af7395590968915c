package txpipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_Reconstructs(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 57, 100} {
		for _, size := range []int{1, 7, 10, 25} {
			items := seq(n)
			pages := txpipeline.TotalPages(n, size)
			var joined []int
			for p := 1; p <= pages; p++ {
				joined = append(joined, txpipeline.Paginate(items, p, size)...)
			}
			if n == 0 {
				assert.Zero(t, pages)
				assert.Empty(t, joined)
				continue
			}
			assert.Equal(t, items, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	items := seq(5)
	assert.Empty(t, txpipeline.Paginate(items, 3, 5))
	assert.Empty(t, txpipeline.Paginate(items, 0, 5))
	assert.Empty(t, txpipeline.Paginate(items, 1, 0))
	assert.Zero(t, txpipeline.TotalPages(5, 0))
}

// Scenario C: page size change while on page 3 goes back to page 1.
func TestPaginator_PageSizeChangeResetsPage(t *testing.T) {
	items := seq(100)
	p := txpipeline.NewPaginator(10)
	p.SetPage(3)
	start, end := p.Bounds(len(items))
	assert.Equal(t, []int{20, 30}, []int{start, end})

	p.SetPageSize(25)
	assert.Equal(t, 1, p.Page)
	start, end = p.Bounds(len(items))
	assert.Equal(t, items[0:25], items[start:end])
}

func TestPaginator_Defaults(t *testing.T) {
	p := txpipeline.NewPaginator(0)
	assert.Equal(t, txpipeline.DefaultPageSize, p.PageSize)
	p.SetPage(-4)
	assert.Equal(t, 1, p.Page)
}
