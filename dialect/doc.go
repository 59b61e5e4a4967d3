// Package dialect provides database dialect abstraction for relmap.
//
// This package defines the interfaces and names used for database-specific
// operations, allowing compiled statements to run against PostgreSQL, MySQL
// and SQLite.
//
// # Dialect Constants
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface adds Commit and Rollback to ExecQuerier.
//
// # Placeholders
//
// Placeholder returns the bind marker of a dialect: "$1", "$2", ... for
// Postgres and "?" for MySQL and SQLite. The statement builder in dialect/sql
// uses it when rendering a query.
//
// # Sub-packages
//
//   - dialect/sql: the Selector statement builder and the database/sql driver
package dialect
