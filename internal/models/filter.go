package models

// SortKey enumerates the supported catalog orderings.
type SortKey string

const (
	SortPopular  SortKey = "popular"
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortNameAsc  SortKey = "name-asc"
	SortNameDesc SortKey = "name-desc"
	SortSizeAsc  SortKey = "size-asc"
	SortSizeDesc SortKey = "size-desc"
)

// Valid reports whether the sort key is a known value.
func (k SortKey) Valid() bool {
	switch k {
	case SortPopular, SortNewest, SortOldest, SortNameAsc, SortNameDesc, SortSizeAsc, SortSizeDesc:
		return true
	}
	return false
}

// FilterAxisAll is the neutral value for an equality axis.
const FilterAxisAll = "all"

// FilterSelection captures one active value per axis plus a sort order and a
// set of required tags. The zero value is not valid; use DefaultSelection.
type FilterSelection struct {
	Category string   `json:"category"`
	Grade    string   `json:"grade"`
	Year     string   `json:"year"`
	Subject  string   `json:"subject"`
	Sort     SortKey  `json:"sort"`
	Tags     []string `json:"tags,omitempty"`
}

// DefaultSelection returns a selection with every axis at its neutral value.
func DefaultSelection() FilterSelection {
	return FilterSelection{
		Category: FilterAxisAll,
		Grade:    FilterAxisAll,
		Year:     FilterAxisAll,
		Subject:  FilterAxisAll,
		Sort:     SortPopular,
	}
}

// IsDefault reports whether the selection matches DefaultSelection.
func (s FilterSelection) IsDefault() bool {
	return s.Category == FilterAxisAll &&
		s.Grade == FilterAxisAll &&
		s.Year == FilterAxisAll &&
		s.Subject == FilterAxisAll &&
		s.Sort == SortPopular &&
		len(s.Tags) == 0
}
