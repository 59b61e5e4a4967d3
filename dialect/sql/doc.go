// Package sql provides the SELECT statement builder and the database/sql
// backed driver the compiled statements run on.
//
// # Selector
//
// A Selector collects the parts of a SELECT statement added by the join,
// condition and order compilers and renders them for one dialect:
//
//	sel := sql.Dialect(dialect.Postgres).Select("books.*").From("books")
//	sel.LeftJoin("books", "authors", "authors", "books.author_id = authors.id")
//	sel.AndWhere("authors.name = ?", "Ann")
//	sel.AndWhere("books.status IN ?", []any{"draft", "published"})
//	sel.AddOrderBy("books.title DESC")
//	query, args := sel.Query()
//	// SELECT books.* FROM books LEFT JOIN authors ON books.author_id = authors.id
//	// WHERE (authors.name = $1) AND (books.status IN ($2, $3)) ORDER BY books.title DESC
//
// Fragments use "?" for each argument. A nil argument renders as NULL and a
// []any argument as a parenthesized placeholder list. A join is added once
// per alias and predicate.
//
// # Drivers
//
// Open and OpenDB wrap a *sql.DB as a dialect.Driver. Query scans into a
// *Rows, which ScanMaps turns into column-keyed maps:
//
//	drv, err := sql.Open("sqlite", "file:library.db")
//	var rows sql.Rows
//	if err := drv.Query(ctx, query, args, &rows); err != nil {
//		return err
//	}
//	maps, err := sql.ScanMaps(rows)
//
// StatsDriver counts statements and reports slow ones, DebugDriver logs
// every statement at debug level.
package sql
