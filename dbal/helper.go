// Package dbal compiles property-path expressions into joins, predicates
// and orderings on a SQL statement builder.
//
//	sel := sql.Select("books.*").From("books")
//	h := dbal.NewHelper(model, books)
//	distinct, err := h.CompileWhere("tags.name", []string{"go"}, sel)
//
// Each expression is resolved against entity metadata, one LEFT JOIN per
// traversed relationship (two for many-to-many), and the final property is
// translated into its storage column.
package dbal

import (
	"log/slog"

	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/metadata"
)

// Builder is the statement builder the compilers write into.
// It is implemented by *sql.Selector.
type Builder interface {
	// FromAlias returns the alias of the root table.
	FromAlias() string
	// LeftJoin adds a LEFT JOIN of table under alias.
	LeftJoin(source, table, alias, on string)
	// Joined returns the predicate of the join registered under alias.
	Joined(alias string) (string, bool)
	// AndWhere adds a predicate; each "?" in fragment binds one arg.
	AndWhere(fragment string, args ...any)
	// AddOrderBy adds an ORDER BY fragment.
	AddOrderBy(fragment string)
}

// Helper compiles expressions written against the entity of one mapper.
type Helper struct {
	model  *mapper.Model
	mapper mapper.Mapper
	log    *slog.Logger
}

// Option configures a Helper.
type Option func(*Helper)

// WithLogger sets the logger joins are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(h *Helper) {
		h.log = l
	}
}

// NewHelper returns a Helper for expressions rooted at the entity of mp.
func NewHelper(model *mapper.Model, mp mapper.Mapper, opts ...Option) *Helper {
	h := &Helper{model: model, mapper: mp, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mapper returns the root mapper of the helper.
func (h *Helper) Mapper() mapper.Mapper {
	return h.mapper
}

// CompileWhere adds the predicate "expr value" to b and reports whether a
// traversed relationship may multiply rows, in which case the caller should
// select DISTINCT.
func (h *Helper) CompileWhere(expr string, value any, b Builder) (bool, error) {
	s := h.NewStatement(b)
	err := s.Where(expr, value)
	return s.DistinctNeeded(), err
}

// CompileOrderBy adds the ordering by expr to b. Expressions traversing a
// to-many relationship fail with an AmbiguousOrderingError.
func (h *Helper) CompileOrderBy(expr string, dir metadata.Direction, b Builder) error {
	return h.NewStatement(b).OrderBy(expr, dir)
}

// NewStatement returns a Statement compiling several expressions onto b
// with one shared alias allocator.
func (h *Helper) NewStatement(b Builder) *Statement {
	aliases := NewAliasAllocator()
	aliases.Reserve(b.FromAlias())
	return &Statement{
		helper:  h,
		builder: b,
		aliases: aliases,
		joins:   make(map[joinKey]string),
	}
}
