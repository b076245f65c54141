package shared

import (
	"strings"
)

// Pagination bounds applied by ListQuery.Normalize
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListQuery represents list options shared by every list operation.
//
// Order accepts a comma separated list of fields; a leading "-" sorts descending.
// Filters keys may carry an operator suffix (field__in, field__gte, field__lte,
// field__ne, field__like); the persistence layer only accepts keys from an
// allow-list.
type ListQuery struct {
	Limit       int
	Offset      int
	Order       string
	Search      string
	Filters     map[string]any
	WithDeleted bool
}

// NewListQuery returns a query with default values
func NewListQuery() ListQuery {
	return ListQuery{
		Limit:   DefaultListLimit,
		Filters: make(map[string]any),
	}
}

// Normalize clamps limit and offset into their allowed range
func (q ListQuery) Normalize() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Filters == nil {
		q.Filters = make(map[string]any)
	}
	q.Order = strings.TrimSpace(q.Order)
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// WithFilter returns a copy of q with key set. The original filter map is not modified.
func (q ListQuery) WithFilter(key string, value any) ListQuery {
	filters := make(map[string]any, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[key] = value
	q.Filters = filters
	return q
}

// SortTerm is one parsed element of ListQuery.Order
type SortTerm struct {
	Field string
	Desc  bool
}

// ParseOrder splits an order expression like "-created_at,title" into terms.
func ParseOrder(order string) []SortTerm {
	var terms []SortTerm
	for _, part := range strings.Split(order, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term := SortTerm{Field: part}
		switch part[0] {
		case '-':
			term.Field = strings.TrimSpace(part[1:])
			term.Desc = true
		case '+':
			term.Field = strings.TrimSpace(part[1:])
		}
		if term.Field != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ListResult represents one page of a list operation
type ListResult[T any] struct {
	Items  []T   `json:"items"`
	Count  int64 `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewListResult creates a list result for the normalized query q
func NewListResult[T any](items []T, count int64, q ListQuery) ListResult[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return ListResult[T]{
		Items:  items,
		Count:  count,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

// MapListResult converts the items of a list result
func MapListResult[T, R any](in ListResult[T], fn func(T) R) ListResult[R] {
	items := make([]R, len(in.Items))
	for i, item := range in.Items {
		items[i] = fn(item)
	}
	return ListResult[R]{Items: items, Count: in.Count, Limit: in.Limit, Offset: in.Offset}
}
