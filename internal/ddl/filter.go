package ddl

import (
	"fmt"
	"reflect"
	"strings"

	"lakecat/internal/domain"
)

// RenderFilter renders a DataFilter as a SQL predicate. Terms become one
// comparison each; expressions render their chain in insertion order with
// nested expressions parenthesized.
func RenderFilter(f domain.DataFilter) (string, error) {
	switch v := f.(type) {
	case *domain.FilterTerm:
		return renderTerm(v)
	case *domain.FilterExpression:
		return renderExpression(v)
	case nil:
		return "", fmt.Errorf("filter is nil")
	default:
		return "", fmt.Errorf("unsupported filter type %T", f)
	}
}

// RenderQuery appends WHERE / ORDER BY / LIMIT / OFFSET clauses from q to a
// base SELECT statement.
func RenderQuery(baseSQL string, q domain.DataQuery) (string, error) {
	sb := strings.Builder{}
	sb.WriteString(baseSQL)

	if q.Filter != nil {
		pred, err := RenderFilter(q.Filter)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(pred)
	}
	if q.Sort != nil {
		if err := ValidateIdentifier(q.Sort.Field); err != nil {
			return "", fmt.Errorf("invalid sort field: %w", err)
		}
		dir := q.Sort.Direction
		if dir == "" {
			dir = domain.SortAsc
		}
		if dir != domain.SortAsc && dir != domain.SortDesc {
			return "", fmt.Errorf("invalid sort direction %q", dir)
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", QuoteIdentifier(q.Sort.Field), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}
	return sb.String(), nil
}

func renderTerm(t *domain.FilterTerm) (string, error) {
	if err := ValidateIdentifier(t.Field); err != nil {
		return "", fmt.Errorf("invalid filter field: %w", err)
	}
	field := QuoteIdentifier(t.Field)

	switch t.Comparison {
	case domain.CompareIsNull, domain.CompareIsNotNull:
		return field + " " + string(t.Comparison), nil

	case domain.CompareIn, domain.CompareNotIn:
		values, err := sliceValues(t.Value)
		if err != nil {
			return "", fmt.Errorf("%s on %q: %w", t.Comparison, t.Field, err)
		}
		if len(values) == 0 {
			return "", fmt.Errorf("%s on %q requires at least one value", t.Comparison, t.Field)
		}
		rendered := make([]string, len(values))
		for i, v := range values {
			rendered[i], err = renderValue(v)
			if err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s %s (%s)", field, t.Comparison, strings.Join(rendered, ", ")), nil

	case domain.CompareBetween:
		values, err := sliceValues(t.Value)
		if err != nil || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN on %q requires exactly two values", t.Field)
		}
		low, err := renderValue(values[0])
		if err != nil {
			return "", err
		}
		high, err := renderValue(values[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", field, low, high), nil

	case domain.CompareEq, domain.CompareNeq, domain.CompareLt, domain.CompareGt,
		domain.CompareLte, domain.CompareGte, domain.CompareLike, domain.CompareNotLike:
		v, err := renderValue(t.Value)
		if err != nil {
			return "", fmt.Errorf("%s on %q: %w", t.Comparison, t.Field, err)
		}
		return fmt.Sprintf("%s %s %s", field, t.Comparison, v), nil

	default:
		return "", fmt.Errorf("unsupported comparison %q", t.Comparison)
	}
}

func renderExpression(e *domain.FilterExpression) (string, error) {
	links := e.Links()
	if len(links) == 0 {
		return "", fmt.Errorf("empty filter expression")
	}
	sb := strings.Builder{}
	for i, link := range links {
		part, err := RenderFilter(link.Filter)
		if err != nil {
			return "", err
		}
		if _, nested := link.Filter.(*domain.FilterExpression); nested {
			part = "(" + part + ")"
		}
		sb.WriteString(part)
		if i < len(links)-1 {
			op := link.Op
			if op != domain.OpAnd && op != domain.OpOr {
				return "", fmt.Errorf("invalid chain operation %q", op)
			}
			sb.WriteString(" " + string(op) + " ")
		}
	}
	return sb.String(), nil
}

// renderValue renders a Go value as a SQL literal. Strings are quoted;
// numeric and boolean values render bare; nil renders as NULL.
func renderValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return QuoteLiteral(val), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32, float64:
		return fmt.Sprintf("%v", val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// sliceValues normalizes a slice-typed filter value into []interface{}.
func sliceValues(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("value is nil")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("value must be a slice, got %T", v)
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
