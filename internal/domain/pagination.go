package domain

const (
	DefaultPerPage = 5
	MaxPerPage     = 100
)

type PageQuery struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Sort    string `form:"sort"`
}

// Normalize clamps page and per_page and resolves the sort key against the
// allowed set, falling back to def for unknown keys. It returns the ORDER BY
// clause for the resolved key.
func (q PageQuery) Normalize(allowed map[string]string, def string) (PageQuery, string) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	order, ok := allowed[q.Sort]
	if !ok {
		q.Sort = def
		order = allowed[def]
	}
	return q, order
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, q PageQuery, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.PerPage > 0 {
		pages = (total + q.PerPage - 1) / q.PerPage
	}
	return Page[T]{Items: items, Page: q.Page, PerPage: q.PerPage, TotalItems: total, TotalPages: pages}
}
