package txpipeline

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Paginator tracks the current page of a table. Changing the page size
// always returns to the first page so the slice never goes out of range.
type Paginator struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// NewPaginator returns a paginator on page 1.
func NewPaginator(pageSize int) Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginator{Page: 1, PageSize: pageSize}
}

// SetPageSize changes the page size and resets to page 1.
func (p *Paginator) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.PageSize = size
	p.Page = 1
}

// SetPage moves to page n, clamped to at least 1.
func (p *Paginator) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	p.Page = n
}

// Bounds returns the half-open [start, end) range of the current page over
// a collection of total items.
func (p Paginator) Bounds(total int) (start, end int) {
	if p.PageSize <= 0 || p.Page < 1 {
		return 0, 0
	}
	start = (p.Page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end = start + p.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// Paginate returns page (1-based) of items. Out-of-range pages are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	start, end := Paginator{Page: page, PageSize: pageSize}.Bounds(len(items))
	return items[start:end]
}

// TotalPages returns ceil(total / pageSize), or 0 when there is nothing to
// page over.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
