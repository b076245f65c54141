package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery_Normalize(t *testing.T) {
	q := ListQuery{Limit: 500, Offset: -4, Order: "  -created_at "}.Normalize()
	assert.Equal(t, MaxListLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, "-created_at", q.Order)
	assert.NotNil(t, q.Filters)

	q = ListQuery{}.Normalize()
	assert.Equal(t, DefaultListLimit, q.Limit)
}

func TestListQuery_WithFilterCopies(t *testing.T) {
	base := NewListQuery()
	next := base.WithFilter("status", "published")
	assert.Empty(t, base.Filters)
	assert.Equal(t, "published", next.Filters["status"])
}

func TestParseOrder(t *testing.T) {
	terms := ParseOrder("-created_at, title,+handle,,-")
	assert.Equal(t, []SortTerm{
		{Field: "created_at", Desc: true},
		{Field: "title"},
		{Field: "handle"},
	}, terms)
	assert.Empty(t, ParseOrder(""))
}

func TestNewListResult(t *testing.T) {
	q := ListQuery{Limit: 10, Offset: 20}
	res := NewListResult[string](nil, 42, q)
	assert.NotNil(t, res.Items)
	assert.Equal(t, int64(42), res.Count)
	assert.Equal(t, 10, res.Limit)
	assert.Equal(t, 20, res.Offset)

	mapped := MapListResult(NewListResult([]int{1, 2}, 2, q), func(i int) int { return i * 2 })
	assert.Equal(t, []int{2, 4}, mapped.Items)
}
