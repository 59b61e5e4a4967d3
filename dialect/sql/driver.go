package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/syssam/relmap/dialect"
)

// Driver is a dialect.Driver over a *sql.DB.
type Driver struct {
	Conn
	dialect string
}

// Open opens a database with database/sql and wraps it. The dialect is
// derived from driverName: "sqlite" (modernc.org/sqlite), "postgres"
// (lib/pq) or "mysql" (go-sql-driver/mysql).
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", driverName, err)
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps db, whose statements are rendered for dialect.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db}, dialect: dialect}
}

// DB returns the wrapped database.
func (d *Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements dialect.Driver. Driver names carrying a suffix, such
// as "sqlite3" or "postgres-instrumented", map to their dialect.
func (d *Driver) Dialect() string {
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx implements dialect.Driver.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{Conn: Conn{tx}, tx: tx}, nil
}

// Close closes the database.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a dialect.Tx over a *sql.Tx.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Commit implements dialect.Tx.
func (tx *Tx) Commit() error { return tx.tx.Commit() }

// Rollback implements dialect.Tx.
func (tx *Tx) Rollback() error { return tx.tx.Rollback() }

// ExecQuerier is the part of *sql.DB and *sql.Tx a Conn runs statements on.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier over an ExecQuerier. Arguments are
// passed as []any.
type Conn struct {
	ExecQuerier
}

// Exec implements dialect.ExecQuerier. v is nil or a *Result.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, err := argList(args)
	if err != nil {
		return err
	}
	res, ok := v.(*Result)
	if v != nil && !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	r, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query implements dialect.ExecQuerier. v must be a *Rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, err := argList(args)
	if err != nil {
		return err
	}
	r, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*rows = Rows{r}
	return nil
}

func argList(args any) ([]any, error) {
	switch args := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return args, nil
	default:
		return nil, fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
}

type (
	// Rows holds the rows of a query. It is a struct so that a *Rows can be
	// passed to Query without copying the underlying lock.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
)

// ColumnScanner is the part of *sql.Rows used to read query results.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// ScanMaps reads all remaining rows into column-keyed maps and closes rows.
// Byte slices are copied, since the driver may reuse them between rows.
func ScanMaps(rows ColumnScanner) (_ []map[string]any, rerr error) {
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return out, nil
}

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)
