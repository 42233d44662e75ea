package remote

import "fmt"

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// encoded returns the PostgREST-style operator expression for the filter.
func (f Filter) encoded() string {
	return fmt.Sprintf("eq.%v", f.Value)
}

// Order is an ordering clause on one column.
type Order struct {
	Column string
	Desc   bool
}

// encoded returns the PostgREST-style order expression.
func (o Order) encoded() string {
	if o.Desc {
		return o.Column + ".desc"
	}
	return o.Column + ".asc"
}

// Query describes a read against one relation.
type Query struct {
	Relation string
	Filters  []Filter
	Order    []Order
	Limit    int // 0 = no limit
}
