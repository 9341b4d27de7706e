package store

import "strings"

// Filter composes a WHERE clause from named-parameter predicates only —
// never string-concatenated values — so the resulting SQL plus args pair
// is injection-safe by construction. This is the builder spec.md §4.5/§6
// describes as shared between the write-side store and the (out-of-scope)
// read API's SQL builder.
type Filter struct {
	clauses []string
	args    []any
}

// Eq adds `column = ?`.
func (f Filter) Eq(column string, value any) Filter {
	f.clauses = append(f.clauses, column+" = ?")
	f.args = append(f.args, value)
	return f
}

// In adds `column IN ?`; gorm expands a slice arg into the parenthesized list.
func (f Filter) In(column string, values any) Filter {
	f.clauses = append(f.clauses, column+" IN ?")
	f.args = append(f.args, values)
	return f
}

// Gte adds `column >= ?`.
func (f Filter) Gte(column string, value any) Filter {
	f.clauses = append(f.clauses, column+" >= ?")
	f.args = append(f.args, value)
	return f
}

// Lte adds `column <= ?`.
func (f Filter) Lte(column string, value any) Filter {
	f.clauses = append(f.clauses, column+" <= ?")
	f.args = append(f.args, value)
	return f
}

// Build renders the accumulated predicates as one AND-joined SQL fragment
// plus its positional args, ready for gorm's Where(sql, args...).
func (f Filter) Build() (string, []any) {
	if len(f.clauses) == 0 {
		return "", nil
	}
	return strings.Join(f.clauses, " AND "), f.args
}

// Where starts a fresh Filter — clarity at call sites over a zero-value
// literal.
func Where() Filter { return Filter{} }
