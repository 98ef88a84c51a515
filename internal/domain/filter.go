package domain

// Comparison is a filter comparison operator.
type Comparison string

const (
	CompareEq        Comparison = "="
	CompareLt        Comparison = "<"
	CompareGt        Comparison = ">"
	CompareLte       Comparison = "<="
	CompareGte       Comparison = ">="
	CompareNeq       Comparison = "!="
	CompareIn        Comparison = "IN"
	CompareNotIn     Comparison = "NOT IN"
	CompareLike      Comparison = "LIKE"
	CompareNotLike   Comparison = "NOT LIKE"
	CompareBetween   Comparison = "BETWEEN"
	CompareIsNull    Comparison = "IS NULL"
	CompareIsNotNull Comparison = "IS NOT NULL"
)

// Operation joins two filters in an expression chain.
type Operation string

const (
	OpAnd Operation = "AND"
	OpOr  Operation = "OR"
)

// SortDirection orders query results.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// DataFilter is a closed sum: either a *FilterTerm or a *FilterExpression.
type DataFilter interface {
	isDataFilter()
}

// FilterTerm is a single comparison against one field.
//
// Value semantics depend on the comparison: IN and NOT IN take a slice,
// BETWEEN takes a two-element slice (low, high), IS NULL and IS NOT NULL
// ignore Value entirely.
type FilterTerm struct {
	Field      string
	Comparison Comparison
	Value      interface{}
}

func (*FilterTerm) isDataFilter() {}

// Term is shorthand for building a FilterTerm.
func Term(field string, cmp Comparison, value interface{}) *FilterTerm {
	return &FilterTerm{Field: field, Comparison: cmp, Value: value}
}

// filterNode is one link in an expression chain: a filter plus the
// operation joining it to the next link.
type filterNode struct {
	filter DataFilter
	op     Operation
}

// FilterExpression chains filters with AND/OR in insertion order.
// Nested expressions are rendered parenthesized.
type FilterExpression struct {
	nodes []filterNode
}

func (*FilterExpression) isDataFilter() {}

// Expr starts an expression from an initial filter.
func Expr(first DataFilter) *FilterExpression {
	return &FilterExpression{nodes: []filterNode{{filter: first}}}
}

// And appends a filter joined by AND. Returns the expression for chaining.
func (e *FilterExpression) And(f DataFilter) *FilterExpression {
	return e.append(OpAnd, f)
}

// Or appends a filter joined by OR. Returns the expression for chaining.
func (e *FilterExpression) Or(f DataFilter) *FilterExpression {
	return e.append(OpOr, f)
}

func (e *FilterExpression) append(op Operation, f DataFilter) *FilterExpression {
	if len(e.nodes) > 0 {
		e.nodes[len(e.nodes)-1].op = op
	}
	e.nodes = append(e.nodes, filterNode{filter: f})
	return e
}

// Links exposes the chain as (filter, joining-operation) pairs. The
// operation of the final link is unused.
func (e *FilterExpression) Links() []struct {
	Filter DataFilter
	Op     Operation
} {
	out := make([]struct {
		Filter DataFilter
		Op     Operation
	}, len(e.nodes))
	for i, n := range e.nodes {
		out[i].Filter = n.filter
		out[i].Op = n.op
	}
	return out
}

// SortTerm orders results by one field.
type SortTerm struct {
	Field     string
	Direction SortDirection
}

// DataQuery bundles an optional filter, optional sort, and paging window.
// Limit <= 0 means no limit.
type DataQuery struct {
	Filter DataFilter
	Sort   *SortTerm
	Offset int
	Limit  int
}
