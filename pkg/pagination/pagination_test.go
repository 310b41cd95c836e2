package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
	}{
		{"defaults", "", 1, 20},
		{"custom", "?page=3&per_page=50", 3, 50},
		{"zero page", "?page=0", 1, 20},
		{"negative size", "?per_page=-5", 1, 20},
		{"size over max", "?per_page=500", 1, 20},
		{"max size", "?per_page=100", 1, 100},
		{"garbage", "?page=abc&per_page=xyz", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			p := FromRequest(req)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
		})
	}
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 50, Params{Page: 3, PerPage: 25}.Offset())
}

// ============================================================================
// Paginate
// ============================================================================

func TestPaginate_MiddlePage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	page, meta := Paginate(items, Params{Page: 2, PerPage: 3})

	assert.Equal(t, []int{4, 5, 6}, page)
	assert.Equal(t, Meta{Page: 2, PerPage: 3, TotalCount: 7, TotalPages: 3, HasNext: true, HasPrev: true}, meta)
}

func TestPaginate_LastPartialPage(t *testing.T) {
	page, meta := Paginate([]int{1, 2, 3, 4, 5, 6, 7}, Params{Page: 3, PerPage: 3})

	assert.Equal(t, []int{7}, page)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestPaginate_PastEnd(t *testing.T) {
	page, meta := Paginate([]string{"a"}, Params{Page: 4, PerPage: 10})

	assert.NotNil(t, page)
	assert.Empty(t, page)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNext)
}

func TestPaginate_Empty(t *testing.T) {
	page, meta := Paginate([]string{}, DefaultParams())

	assert.Empty(t, page)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}
