package persistence

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter operator suffixes accepted on FilterColumns keys
const (
	opIn   = "__in"
	opGte  = "__gte"
	opLte  = "__lte"
	opNe   = "__ne"
	opLike = "__like"
)

var filterOperators = []string{opIn, opGte, opLte, opNe, opLike}

// FilterFunc applies a filter that is not a plain column comparison
type FilterFunc func(db *gorm.DB, value any) *gorm.DB

// ListSpec is the allow-list a repository exposes to list queries.
// Nothing outside it ever reaches the generated SQL.
type ListSpec struct {
	// SortFields maps public sort keys to columns
	SortFields map[string]string
	// DefaultOrder applies when the query has no order, e.g. "created_at DESC"
	DefaultOrder string
	// SearchColumns are matched case-insensitively against ListQuery.Search
	SearchColumns []string
	// FilterColumns maps public filter keys to columns; operator suffixes apply
	FilterColumns map[string]string
	// Filters handle keys that need joins or subqueries
	Filters map[string]FilterFunc
}

// listPage counts the rows matching q and loads one page of them
func listPage[M any](ctx context.Context, db *gorm.DB, q shared.ListQuery, spec ListSpec) ([]M, int64, error) {
	q = q.Normalize()
	query, err := applyListFilters(db.WithContext(ctx).Model(new(M)), q, spec)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query, err = applyListOrder(query, q, spec)
	if err != nil {
		return nil, 0, err
	}
	var rows []M
	if err := query.Limit(q.Limit).Offset(q.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyListFilters(db *gorm.DB, q shared.ListQuery, spec ListSpec) (*gorm.DB, error) {
	if q.WithDeleted {
		db = db.Unscoped()
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var v shared.Validator
	for _, key := range keys {
		value := q.Filters[key]
		if fn, ok := spec.Filters[key]; ok {
			db = fn(db, value)
			continue
		}
		field, op := splitOperator(key)
		column, ok := spec.FilterColumns[field]
		if !ok {
			v.Check(false, "filters."+key, fmt.Sprintf("filtering by %q is not allowed", key))
			continue
		}
		db = applyOperator(db, column, op, value)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if q.Search != "" && len(spec.SearchColumns) > 0 {
		pattern := containsPattern(q.Search)
		parts := make([]string, len(spec.SearchColumns))
		args := make([]any, len(spec.SearchColumns))
		for i, col := range spec.SearchColumns {
			parts[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
			args[i] = pattern
		}
		db = db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	return db, nil
}

func applyListOrder(db *gorm.DB, q shared.ListQuery, spec ListSpec) (*gorm.DB, error) {
	terms := shared.ParseOrder(q.Order)
	if len(terms) == 0 {
		if spec.DefaultOrder != "" {
			db = db.Order(spec.DefaultOrder)
		}
		return db, nil
	}

	var v shared.Validator
	for _, term := range terms {
		column, ok := spec.SortFields[term.Field]
		if !ok {
			v.Check(false, "order", fmt.Sprintf("sorting by %q is not allowed", term.Field))
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: term.Desc})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return db, nil
}

func splitOperator(key string) (string, string) {
	for _, op := range filterOperators {
		if strings.HasSuffix(key, op) {
			return strings.TrimSuffix(key, op), op
		}
	}
	return key, ""
}

func applyOperator(db *gorm.DB, column, op string, value any) *gorm.DB {
	switch op {
	case opIn:
		return db.Where(column+" IN ?", toSlice(value))
	case opGte:
		return db.Where(column+" >= ?", value)
	case opLte:
		return db.Where(column+" <= ?", value)
	case opNe:
		if value == nil {
			return db.Where(column + " IS NOT NULL")
		}
		return db.Where(column+" <> ?", value)
	case opLike:
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '!'", containsPattern(fmt.Sprint(value)))
	}
	if value == nil {
		return db.Where(column + " IS NULL")
	}
	if isList(value) {
		return db.Where(column+" IN ?", toSlice(value))
	}
	return db.Where(column+" = ?", value)
}

// likeEscaper escapes LIKE wildcards for use with ESCAPE '!'
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches term literally anywhere in a lowercased column
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// toSlice turns a slice of any element type or a comma separated string into []any
func toSlice(value any) []any {
	if s, ok := value.(string); ok {
		parts := strings.Split(s, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	if !isList(value) {
		return []any{value}
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// isList reports whether value is a slice other than []byte.
// Arrays such as uuid.UUID are scalars.
func isList(value any) bool {
	if _, ok := value.([]byte); ok {
		return false
	}
	return value != nil && reflect.ValueOf(value).Kind() == reflect.Slice
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
