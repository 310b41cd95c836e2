// Package pagination slices derived lists into pages.
package pagination

import (
	"net/http"
	"strconv"
)

// Limits for page sizes.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// FromRequest reads ?page= and ?per_page=. Missing, malformed or out of
// range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}
	return p
}

// Offset is the index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes where a page sits in the full list.
type Meta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Paginate returns the items on page p together with its metadata. A page past
// the end yields an empty, non-nil slice.
func Paginate[T any](items []T, p Params) ([]T, Meta) {
	total := len(items)
	pages := total / p.PerPage
	if total%p.PerPage > 0 {
		pages++
	}

	meta := Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalCount: total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}

	start := p.Offset()
	if start >= total {
		return []T{}, meta
	}
	end := min(start+p.PerPage, total)
	return items[start:end], meta
}
