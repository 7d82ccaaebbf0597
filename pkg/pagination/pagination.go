package pagination

// The backend pages with skip/limit and never reports a total count, so page
// metadata describes what has been seen rather than what exists.

const (
	defaultPerPage = 50
	// MaxPerPage is the backend's product page limit
	MaxPerPage = 100
)

// PaginationParams are the page and page size requested by the client
type PaginationParams struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// DefaultPagination returns the first page at the default size
func DefaultPagination() *PaginationParams {
	return &PaginationParams{Page: 1, PerPage: defaultPerPage}
}

// Validate clamps page to >= 1 and page size to 1..MaxPerPage
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = defaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
}

// Offset is the backend "skip" value for the current page
func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pagination is the page metadata returned with a page of items.
// Seen counts the items on this page and every page before it.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Seen        int64 `json:"seen"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination builds the metadata for a page of count items. A full page
// means another one may follow.
func NewPagination(p *PaginationParams, count int) *Pagination {
	return &Pagination{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Seen:        int64(p.Offset() + count),
		HasNext:     count == p.PerPage,
		HasPrev:     p.Page > 1,
	}
}

// PaginatedResult is a page of items with its metadata
type PaginatedResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// NewPaginatedResult creates a new paginated result
func NewPaginatedResult[T any](items []T, pagination *Pagination) *PaginatedResult[T] {
	return &PaginatedResult[T]{
		Items:      items,
		Pagination: pagination,
	}
}
