package util

// ListFilter carries the filter, ordering and pagination options of a list
// endpoint. A zero PerPage means "no limit".
type ListFilter struct {
	Filters []QueryFilter
	Order   []OrderClause
	Page    int
	PerPage int
}

// Paginated reports whether a page size was requested.
func (f ListFilter) Paginated() bool {
	return f.PerPage > 0
}

// Offset returns the number of rows to skip for the requested page.
func (f ListFilter) Offset() int {
	if f.PerPage <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// FieldSet lists the columns a list endpoint accepts in query and order
// parameters.
type FieldSet struct {
	Query []string
	Order []string
}

// Validate checks every filter and order field against the allowed set.
func (fs FieldSet) Validate(f ListFilter) error {
	if err := ValidateFilterFields(f.Filters, fs.Query); err != nil {
		return err
	}
	return ValidateOrderFields(f.Order, fs.Order)
}
