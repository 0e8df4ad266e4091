// Package query assembles parameterized SQL from optional filter, sort and
// pagination inputs. Placeholders are numbered ($1, $2, ...) and every number
// maps to exactly one entry of the argument slice, in order.
package query

import (
	"fmt"
	"strings"
)

// Op is the kind of predicate a Filter produces.
type Op int

const (
	// Equal produces `column = $n`.
	Equal Op = iota
	// EqualFold produces `LOWER(column) = LOWER($n)`.
	EqualFold
	// AtLeast produces `column >= $n`.
	AtLeast
	// AtMost produces `column <= $n`.
	AtMost
	// Contains produces a case-insensitive partial match over every column,
	// OR-ed together and sharing one parameter.
	Contains
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter binds a request key to the columns it constrains.
type Filter struct {
	Key     string
	Op      Op
	Columns []string
}

// Builder accumulates AND-ed predicates and their arguments.
type Builder struct {
	preds []string
	args  []any
}

func NewBuilder() *Builder {
	return &Builder{}
}

// bind appends v to the argument list and returns its placeholder.
func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// Add appends the predicate for f when value is present. Absent values
// (nil or empty string) are skipped and consume no placeholder.
func (b *Builder) Add(f Filter, value any) *Builder {
	if isEmpty(value) || len(f.Columns) == 0 {
		return b
	}
	value = deref(value)

	switch f.Op {
	case Equal:
		b.preds = append(b.preds, fmt.Sprintf("%s = %s", f.Columns[0], b.bind(value)))
	case EqualFold:
		b.preds = append(b.preds, fmt.Sprintf("LOWER(%s) = LOWER(%s)", f.Columns[0], b.bind(value)))
	case AtLeast:
		b.preds = append(b.preds, fmt.Sprintf("%s >= %s", f.Columns[0], b.bind(value)))
	case AtMost:
		b.preds = append(b.preds, fmt.Sprintf("%s <= %s", f.Columns[0], b.bind(value)))
	case Contains:
		ph := b.bind(fmt.Sprintf("%%%v%%", value))
		parts := make([]string, len(f.Columns))
		for i, col := range f.Columns {
			parts[i] = fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, ph)
		}
		b.preds = append(b.preds, "("+strings.Join(parts, " OR ")+")")
	}
	return b
}

// Range constrains column to the closed interval [lo, hi].
func (b *Builder) Range(column string, lo, hi any) *Builder {
	if isEmpty(lo) || isEmpty(hi) {
		return b
	}
	b.preds = append(b.preds, fmt.Sprintf("%s BETWEEN %s AND %s", column, b.bind(deref(lo)), b.bind(deref(hi))))
	return b
}

// Literal appends a predicate that carries no parameters.
func (b *Builder) Literal(pred string) *Builder {
	b.preds = append(b.preds, pred)
	return b
}

// Where returns the clause starting with `WHERE 1=1` and a copy of the args.
func (b *Builder) Where() (string, []any) {
	var sb strings.Builder
	sb.WriteString("WHERE 1=1")
	for _, p := range b.preds {
		sb.WriteString(" AND ")
		sb.WriteString(p)
	}
	args := make([]any, len(b.args))
	copy(args, b.args)
	return sb.String(), args
}

// Args returns the number of bound arguments so far.
func (b *Builder) Args() int {
	return len(b.args)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	case *int:
		return t == nil
	case *float64:
		return t == nil
	case *bool:
		return t == nil
	}
	return false
}

func deref(v any) any {
	switch t := v.(type) {
	case *string:
		return *t
	case *int:
		return *t
	case *float64:
		return *t
	case *bool:
		return *t
	}
	return v
}

// Direction normalises a user supplied sort direction to ASC or DESC.
// Anything other than a case-insensitive "asc" sorts descending.
func Direction(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), "asc") {
		return "ASC"
	}
	return "DESC"
}
