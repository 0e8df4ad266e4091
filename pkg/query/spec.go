package query

import (
	"fmt"
	"strings"
)

// Spec describes one listable table: the filters it recognises, in the order
// their predicates are emitted, and the columns it may be sorted by.
type Spec struct {
	Table   string
	Columns string
	Filters []Filter

	// Sorts maps a request sort key to a column. Keys not present fall back
	// to DefaultSort.
	Sorts        map[string]string
	DefaultSort  string
	DefaultLimit int
	MaxLimit     int
}

// Params is the caller-validated input. Values are bound as given.
type Params struct {
	Values map[string]any
	Sort   string
	Order  string
	Limit  int
	Offset int
}

// Query is a row query and its structurally parallel count query.
type Query struct {
	SQL       string
	Args      []any
	CountSQL  string
	CountArgs []any
	Sort      string
	Order     string
	Limit     int
	Offset    int
}

// Build emits predicates for the recognised filters present in p, then any
// extra predicates, then ORDER BY, then LIMIT/OFFSET as the last two
// parameters.
func (s Spec) Build(p Params, extra ...func(*Builder)) Query {
	b := NewBuilder()
	for _, f := range s.Filters {
		b.Add(f, p.Values[f.Key])
	}
	for _, fn := range extra {
		fn(b)
	}

	where, args := b.Where()
	countArgs := make([]any, len(args))
	copy(countArgs, args)

	sortKey, column := s.sortColumn(p.Sort)
	order := Direction(p.Order)
	limit, offset := s.page(p.Limit, p.Offset)

	columns := s.Columns
	if columns == "" {
		columns = "*"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s %s ORDER BY %s %s", columns, s.Table, where, column, order)
	fmt.Fprintf(&sb, " LIMIT %s", b.bind(limit))
	fmt.Fprintf(&sb, " OFFSET %s", b.bind(offset))

	return Query{
		SQL:       sb.String(),
		Args:      b.args,
		CountSQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s %s", s.Table, where),
		CountArgs: countArgs,
		Sort:      sortKey,
		Order:     order,
		Limit:     limit,
		Offset:    offset,
	}
}

func (s Spec) sortColumn(key string) (string, string) {
	key = strings.TrimSpace(key)
	if col, ok := s.Sorts[key]; ok {
		return key, col
	}
	if col, ok := s.Sorts[s.DefaultSort]; ok {
		return s.DefaultSort, col
	}
	return s.DefaultSort, s.DefaultSort
}

func (s Spec) page(limit, offset int) (int, int) {
	def, ceiling := s.DefaultLimit, s.MaxLimit
	if def <= 0 {
		def = DefaultLimit
	}
	if ceiling <= 0 {
		ceiling = MaxLimit
	}
	if limit <= 0 {
		limit = def
	}
	if limit > ceiling {
		limit = ceiling
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
