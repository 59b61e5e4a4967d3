// Package relmap is the query-compilation and relationship-state core of an
// object-relational mapper.
//
// It translates dotted property paths written against entity metadata into
// SQL joins, predicates and orderings, and keeps the pending state of
// one-to-many relationship collections until they are committed.
//
// # Packages
//
//   - parser: splits "author.country.name!=" into levels and an operator
//   - metadata: entity and relationship metadata, loaded from Go or YAML
//   - mapper, mapper/sqlmapper: table naming, storage reflection and the
//     lazily fetched one-to-many collections
//   - dbal: the join, condition and order compilers
//   - relationship: the one-to-many collection state machine
//   - dialect, dialect/sql: the statement builder and driver layer
//   - cmd/relmap: the explain and query command line tool
//
// # Example
//
//	storage, err := metadata.LoadFile("metadata.yaml")
//	if err != nil {
//		return err
//	}
//	model := mapper.NewModel(storage)
//	if err := sqlmapper.Register(model, drv); err != nil {
//		return err
//	}
//	books, err := model.Mapper("Book")
//	...
//	sel := sql.Dialect(dialect.Postgres).Select("books.*").From("books")
//	distinct, err := dbal.NewHelper(model, books).
//		CompileWhere("tags.name", []string{"go", "sql"}, sel)
//
// The root package holds the error types shared by all of them.
package relmap
