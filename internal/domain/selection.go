package domain

// CategoryAll disables category filtering.
const CategoryAll = "all"

// SortMode selects the ordering of the derived product view.
type SortMode string

// Sort modes.
const (
	SortFeatured  SortMode = "featured"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortRating    SortMode = "rating"
	SortNewest    SortMode = "newest"
)

// ValidSortModes returns the list of known sort modes.
func ValidSortModes() []SortMode {
	return []SortMode{SortFeatured, SortPriceLow, SortPriceHigh, SortRating, SortNewest}
}

// IsValidSort checks whether the given string is a known sort mode.
func IsValidSort(s string) bool {
	for _, m := range ValidSortModes() {
		if string(m) == s {
			return true
		}
	}
	return false
}

// Selection is the user's current filter, search and sort choice.
type Selection struct {
	Category   string   `json:"category"`
	SearchTerm string   `json:"search"`
	Sort       SortMode `json:"sort"`
}

// DefaultSelection returns the selection a fresh session starts with.
func DefaultSelection() Selection {
	return Selection{Category: CategoryAll, Sort: SortFeatured}
}

// Normalize maps an empty category to "all" and unknown sort modes to featured.
func (s Selection) Normalize() Selection {
	if s.Category == "" {
		s.Category = CategoryAll
	}
	if !IsValidSort(string(s.Sort)) {
		s.Sort = SortFeatured
	}
	return s
}
