package model

type SortField string

const (
	SortByName       SortField = "name"
	SortByRollNumber SortField = "roll_number"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filters is the list view selection. An empty Class means all classes.
type Filters struct {
	Search    string
	Class     string
	SortBy    SortField
	SortOrder SortOrder
}

func DefaultFilters() Filters {
	return Filters{SortBy: SortByName, SortOrder: SortAsc}
}

func ParseSortField(s string) (SortField, bool) {
	switch SortField(s) {
	case SortByName, SortByRollNumber:
		return SortField(s), true
	}
	return "", false
}

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), true
	}
	return "", false
}
