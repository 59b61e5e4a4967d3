package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/relmap/dialect"
)

// DialectBuilder prefixes all root builders with the dialect it renders for.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select creates a Selector for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Select("books.*").
//		From("books")
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Select creates a Selector that renders "?" placeholders.
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// Join describes one LEFT JOIN added to a Selector.
type Join struct {
	Source string // Alias the join hangs off.
	Table  string // Joined table.
	Alias  string // Alias of the joined table.
	On     string // Join predicate.
}

// Predicate is one WHERE fragment with its bound values. Every "?" in the
// fragment consumes one value.
type Predicate struct {
	Fragment string
	Args     []any
}

// Selector is a builder for the SELECT statement. Fragments passed to it are
// written verbatim; only the "?" markers in WHERE fragments are rewritten to
// the placeholders of the dialect.
type Selector struct {
	dialect  string
	columns  []string
	from     string
	as       string
	joins    []Join
	where    []Predicate
	order    []string
	distinct bool
	limit    *int
	offset   *int
}

// From sets the source table of the SELECT statement.
func (s *Selector) From(table string) *Selector {
	s.from = table
	return s
}

// As sets the alias of the source table.
func (s *Selector) As(alias string) *Selector {
	s.as = alias
	return s
}

// Table returns the source table of the statement.
func (s *Selector) Table() string {
	return s.from
}

// Dialect returns the dialect name the selector renders for.
func (s *Selector) Dialect() string {
	return s.dialect
}

// FromAlias returns the alias the source table is referenced by.
func (s *Selector) FromAlias() string {
	if s.as != "" {
		return s.as
	}
	return s.from
}

// Columns sets the selected columns, replacing previous ones.
func (s *Selector) Columns(columns ...string) *Selector {
	s.columns = columns
	return s
}

// Distinct adds the DISTINCT keyword to the SELECT statement.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// IsDistinct reports if the statement was marked DISTINCT.
func (s *Selector) IsDistinct() bool {
	return s.distinct
}

// LeftJoin appends a LEFT JOIN of table under alias. Adding a join that is
// already present (same alias and predicate) is a no-op.
func (s *Selector) LeftJoin(source, table, alias, on string) {
	for _, j := range s.joins {
		if j.Alias == alias && j.On == on {
			return
		}
	}
	s.joins = append(s.joins, Join{Source: source, Table: table, Alias: alias, On: on})
}

// Joined returns the predicate of the join registered under alias.
func (s *Selector) Joined(alias string) (string, bool) {
	for _, j := range s.joins {
		if j.Alias == alias {
			return j.On, true
		}
	}
	return "", false
}

// Joins returns the joins added to the selector, in order.
func (s *Selector) Joins() []Join {
	return s.joins
}

// AndWhere appends a predicate fragment. Fragments are combined with AND.
func (s *Selector) AndWhere(fragment string, args ...any) {
	s.where = append(s.where, Predicate{Fragment: fragment, Args: args})
}

// Predicates returns the WHERE fragments added to the selector, in order.
func (s *Selector) Predicates() []Predicate {
	return s.where
}

// AddOrderBy appends an ORDER BY fragment, e.g. "authors.name DESC".
func (s *Selector) AddOrderBy(fragment string) {
	s.order = append(s.order, fragment)
}

// Orders returns the ORDER BY fragments added to the selector, in order.
func (s *Selector) Orders() []string {
	return s.order
}

// Limit adds the LIMIT clause to the SELECT statement.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the OFFSET clause to the SELECT statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Query returns the statement text and its arguments.
func (s *Selector) Query() (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.columns, ", "))
	}
	b.WriteString(" FROM ")
	writeTable(&b, s.from, s.as)
	for _, j := range s.joins {
		b.WriteString(" LEFT JOIN ")
		writeTable(&b, j.Table, j.Alias)
		b.WriteString(" ON ")
		b.WriteString(j.On)
	}
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		for i, p := range s.where {
			if i > 0 {
				b.WriteString(" AND ")
			}
			if len(s.where) > 1 {
				b.WriteByte('(')
			}
			args = s.writePredicate(&b, p, args)
			if len(s.where) > 1 {
				b.WriteByte(')')
			}
		}
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.order, ", "))
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*s.offset))
	}
	return b.String(), args
}

// String implements the fmt.Stringer interface.
func (s *Selector) String() string {
	query, _ := s.Query()
	return query
}

// writePredicate writes the fragment, replacing each "?" with the rendering
// of the matching argument. Nil renders as the NULL literal, a []any renders
// as a parenthesized placeholder list.
func (s *Selector) writePredicate(b *strings.Builder, p Predicate, args []any) []any {
	next := 0
	for i := 0; i < len(p.Fragment); i++ {
		c := p.Fragment[i]
		if c != '?' || next >= len(p.Args) {
			b.WriteByte(c)
			continue
		}
		arg := p.Args[next]
		next++
		switch v := arg.(type) {
		case nil:
			b.WriteString("NULL")
		case []any:
			b.WriteByte('(')
			for k, e := range v {
				if k > 0 {
					b.WriteString(", ")
				}
				if e == nil {
					b.WriteString("NULL")
					continue
				}
				args = append(args, e)
				b.WriteString(dialect.Placeholder(s.dialect, len(args)))
			}
			b.WriteByte(')')
		default:
			args = append(args, v)
			b.WriteString(dialect.Placeholder(s.dialect, len(args)))
		}
	}
	return args
}

func writeTable(b *strings.Builder, table, alias string) {
	b.WriteString(table)
	if alias != "" && alias != table {
		b.WriteString(" AS ")
		b.WriteString(alias)
	}
}
