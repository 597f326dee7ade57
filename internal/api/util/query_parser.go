package util

import (
	"fmt"
	"slices"
	"strings"
)

// QueryOperator represents a filter operator
type QueryOperator string

const (
	OpEq        QueryOperator = "eq"
	OpNe        QueryOperator = "ne"
	OpGt        QueryOperator = "gt"
	OpGte       QueryOperator = "gte"
	OpLt        QueryOperator = "lt"
	OpLte       QueryOperator = "lte"
	OpIn        QueryOperator = "in"
	OpNin       QueryOperator = "nin"
	OpIsNull    QueryOperator = "isnull"
	OpIsNotNull QueryOperator = "isnotnull"
)

// QueryFilter represents a single filter condition. Value is a string, a
// []string for in/nin, or nil for the null checks.
type QueryFilter struct {
	Field    string
	Operator QueryOperator
	Value    any
}

// OrderDirection represents sort direction
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

type OrderClause struct {
	Field     string
	Direction OrderDirection
}

// QueryError is returned for malformed query/order parameters and unknown
// fields.
type QueryError struct {
	Param   string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s parameter: %s", e.Param, e.Message)
}

var validOperators = map[string]QueryOperator{
	"eq":        OpEq,
	"ne":        OpNe,
	"gt":        OpGt,
	"gte":       OpGte,
	"lt":        OpLt,
	"lte":       OpLte,
	"in":        OpIn,
	"nin":       OpNin,
	"isnull":    OpIsNull,
	"isnotnull": OpIsNotNull,
}

// ParseQueryString parses a comma-separated list of conditions:
//
//	field|value            equality
//	field|isnull           null checks (isnull, isnotnull)
//	field|operator|value   explicit operator; in/nin take values joined by ';'
func ParseQueryString(queryStr string) ([]QueryFilter, error) {
	if queryStr == "" {
		return nil, nil
	}

	var filters []QueryFilter
	for _, pair := range strings.Split(queryStr, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.Split(pair, "|")
		switch len(parts) {
		case 2:
			op := QueryOperator(strings.ToLower(parts[1]))
			if op == OpIsNull || op == OpIsNotNull {
				filters = append(filters, QueryFilter{Field: parts[0], Operator: op})
				continue
			}
			filters = append(filters, QueryFilter{Field: parts[0], Operator: OpEq, Value: parts[1]})

		case 3:
			op, ok := validOperators[strings.ToLower(parts[1])]
			if !ok {
				return nil, &QueryError{Param: "query", Message: "unknown operator " + parts[1]}
			}
			var value any = parts[2]
			if op == OpIn || op == OpNin {
				value = strings.Split(parts[2], ";")
			}
			filters = append(filters, QueryFilter{Field: parts[0], Operator: op, Value: value})

		default:
			return nil, &QueryError{Param: "query", Message: fmt.Sprintf("%q (expected field|value or field|operator|value)", pair)}
		}
	}

	return filters, nil
}

// ParseOrderString parses "field|direction" clauses separated by commas.
func ParseOrderString(orderStr string) ([]OrderClause, error) {
	if orderStr == "" {
		return nil, nil
	}

	var orders []OrderClause
	for _, pair := range strings.Split(orderStr, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		field, dir, ok := strings.Cut(pair, "|")
		if !ok || strings.Contains(dir, "|") {
			return nil, &QueryError{Param: "order", Message: fmt.Sprintf("%q (expected field|direction)", pair)}
		}

		direction := OrderDirection(strings.ToLower(dir))
		if direction != OrderAsc && direction != OrderDesc {
			return nil, &QueryError{Param: "order", Message: "direction must be asc or desc, got " + dir}
		}
		orders = append(orders, OrderClause{Field: field, Direction: direction})
	}

	return orders, nil
}

func ValidateFilterFields(filters []QueryFilter, allowedFields []string) error {
	for _, f := range filters {
		if !slices.Contains(allowedFields, f.Field) {
			return &QueryError{Param: "query", Message: fmt.Sprintf("unknown field %s (valid fields: %s)", f.Field, strings.Join(allowedFields, ", "))}
		}
	}
	return nil
}

func ValidateOrderFields(orders []OrderClause, allowedFields []string) error {
	for _, o := range orders {
		if !slices.Contains(allowedFields, o.Field) {
			return &QueryError{Param: "order", Message: fmt.Sprintf("unknown field %s (valid fields: %s)", o.Field, strings.Join(allowedFields, ", "))}
		}
	}
	return nil
}
