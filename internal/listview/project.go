package listview

import (
	"strings"
)

// All is the filter value that matches every item.
const All = "all"

// Fields maps a field name to the function that reads it from an item.
// Filters and search only see fields declared here.
type Fields[T any] map[string]func(T) string

// Query is the filter and search state of one view.
type Query struct {
	// Filters holds equality filters keyed by field name. An empty value
	// or All disables the filter.
	Filters map[string]string

	// Search is matched case-insensitively as a substring of any search field.
	Search string
}

// Active reports whether the filter on field narrows the view.
func (q Query) Active(field string) bool {
	v, ok := q.Filters[field]
	return ok && v != "" && v != All
}

// With returns a copy of q with field filtered to value.
func (q Query) With(field, value string) Query {
	filters := make(map[string]string, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[field] = value
	return Query{Filters: filters, Search: q.Search}
}

// Project returns the items that pass every active filter and the search
// term, in their original order. It never modifies items and always
// returns a new slice.
func Project[T any](items []T, fields Fields[T], q Query, searchFields []string) []T {
	term := strings.ToLower(q.Search)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchFilters(item, fields, q.Filters) && matchSearch(item, fields, term, searchFields) {
			out = append(out, item)
		}
	}
	return out
}

func matchFilters[T any](item T, fields Fields[T], filters map[string]string) bool {
	for field, want := range filters {
		if want == "" || want == All {
			continue
		}
		if read(item, fields, field) != want {
			return false
		}
	}
	return true
}

func matchSearch[T any](item T, fields Fields[T], term string, searchFields []string) bool {
	if term == "" {
		return true
	}
	for _, field := range searchFields {
		if strings.Contains(strings.ToLower(read(item, fields, field)), term) {
			return true
		}
	}
	return false
}

func read[T any](item T, fields Fields[T], field string) string {
	get, ok := fields[field]
	if !ok {
		return ""
	}
	return get(item)
}

// Distinct lists the values of field across items in first-seen order.
// It feeds filter option lists.
func Distinct[T any](items []T, fields Fields[T], field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		v := read(item, fields, field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
