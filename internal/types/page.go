package types

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps a page request: page defaults to 1, size defaults to 20 and
// is capped at 100.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type PageResult[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

func NewPageResult[T any](p Page, count int64, results []T) PageResult[T] {
	if results == nil {
		results = []T{}
	}
	return PageResult[T]{Count: count, Page: p.Number, PageSize: p.Size, Results: results}
}
