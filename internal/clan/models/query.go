package models

// SortField selects the ordering of List results.
type SortField string

const (
	// SortByCreatedAt orders ascending by created_at, ties by insertion order.
	SortByCreatedAt SortField = "created_at"
)

// DefaultSort is applied when the caller does not name a sort field.
const DefaultSort = SortByCreatedAt

// IsKnown reports whether the store has a defined ordering for f. Unknown
// fields fall back to natural (insertion) order.
func (f SortField) IsKnown() bool {
	return f == SortByCreatedAt
}

// ListQuery filters and orders a List call. A nil Region means no filter.
type ListQuery struct {
	Region *string
	SortBy SortField
}

// Matches reports whether c passes the query's filter.
func (q ListQuery) Matches(c *Clan) bool {
	if q.Region == nil {
		return true
	}
	return c.HasRegion(*q.Region)
}
