package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/martijn/parkapi/internal/api/util"
)

// Queries are built with '?' placeholders and rebound to the driver's
// bindvar style by the caller.

// BuildFilterClause builds a SQL condition from a QueryFilter. Field names
// must already be validated against an allow-list.
func (d *dialect) BuildFilterClause(f util.QueryFilter) (string, []any) {
	switch f.Operator {
	case util.OpEq:
		return f.Field + " = ?", []any{d.arg(f.Value)}
	case util.OpNe:
		return f.Field + " != ?", []any{d.arg(f.Value)}
	case util.OpGt:
		return f.Field + " > ?", []any{d.arg(f.Value)}
	case util.OpGte:
		return f.Field + " >= ?", []any{d.arg(f.Value)}
	case util.OpLt:
		return f.Field + " < ?", []any{d.arg(f.Value)}
	case util.OpLte:
		return f.Field + " <= ?", []any{d.arg(f.Value)}
	case util.OpIsNull:
		return f.Field + " IS NULL", nil
	case util.OpIsNotNull:
		return f.Field + " IS NOT NULL", nil
	case util.OpIn, util.OpNin:
		values := d.listArgs(f.Value)
		if len(values) == 0 {
			return "", nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		keyword := "IN"
		if f.Operator == util.OpNin {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", f.Field, keyword, placeholders), values
	default:
		return "", nil
	}
}

func (d *dialect) arg(v any) any {
	if t, ok := v.(time.Time); ok {
		return d.timeArg(t)
	}
	return v
}

// nullTimeArg is arg for nullable timestamp columns.
func (d *dialect) nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.timeArg(*t)
}

func (d *dialect) listArgs(v any) []any {
	switch values := v.(type) {
	case []string:
		args := make([]any, len(values))
		for i, s := range values {
			args[i] = s
		}
		return args
	case []any:
		args := make([]any, len(values))
		for i, a := range values {
			args[i] = d.arg(a)
		}
		return args
	default:
		return nil
	}
}

// ApplyFilters appends one AND condition per filter.
func (d *dialect) ApplyFilters(query string, args []any, filters []util.QueryFilter) (string, []any) {
	for _, f := range filters {
		clause, filterArgs := d.BuildFilterClause(f)
		if clause != "" {
			query += " AND " + clause
			args = append(args, filterArgs...)
		}
	}
	return query, args
}

// ApplyOrdering appends ORDER BY, falling back to defaultOrder.
func ApplyOrdering(query string, orders []util.OrderClause, defaultOrder string) string {
	if len(orders) == 0 {
		return query + " ORDER BY " + defaultOrder
	}
	clauses := make([]string, 0, len(orders))
	for _, o := range orders {
		direction := "ASC"
		if o.Direction == util.OrderDesc {
			direction = "DESC"
		}
		clauses = append(clauses, o.Field+" "+direction)
	}
	return query + " ORDER BY " + strings.Join(clauses, ", ")
}

func ApplyPagination(query string, args []any, f util.ListFilter) (string, []any) {
	if !f.Paginated() {
		return query, args
	}
	query += " LIMIT ?"
	args = append(args, f.PerPage)
	if offset := f.Offset(); offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}
