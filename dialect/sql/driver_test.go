package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/dialect"
)

func TestDriver_Dialect(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{dialect.Postgres, dialect.Postgres},
		{dialect.MySQL, dialect.MySQL},
		{dialect.SQLite, dialect.SQLite},
		{"sqlite3", dialect.SQLite},
		{"postgres-traced", dialect.Postgres},
		{"oracle", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			assert.Equal(t, tt.want, OpenDB(tt.name, db).Dialect())
		})
	}
}

func TestDriver_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectQuery(`SELECT books\.\* FROM books WHERE books\.author_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Go in Practice").AddRow(2, "SQL Joins"))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT books.* FROM books WHERE books.author_id = $1", []any{1}, rows))
	maps, err := ScanMaps(rows)
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.Equal(t, "SQL Joins", maps[1]["title"])
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	err = drv.Query(context.Background(), "SELECT 1", nil, &Rows{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "dialect/sql: query")
}

func TestDriver_Exec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO books_x_tags").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	var res Result
	require.NoError(t, drv.Exec(ctx, "INSERT INTO books_x_tags (book_id, tag_id) VALUES ($1, $2)", []any{1, 2}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("DELETE FROM books_x_tags").WillReturnError(errors.New("locked"))
	err = drv.Exec(ctx, "DELETE FROM books_x_tags", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect/sql: exec: locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_Tx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		tx, err := OpenDB(dialect.SQLite, db).Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Exec(ctx, "UPDATE books SET status = ?", []any{"draft"}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM books").WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		tx, err := OpenDB(dialect.SQLite, db).Tx(ctx)
		require.NoError(t, err)
		rows := &Rows{}
		require.NoError(t, tx.Query(ctx, "SELECT id FROM books", []any{}, rows))
		require.NoError(t, rows.Close())
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("read only"))
		_, err = OpenDB(dialect.SQLite, db).Tx(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: begin")
	})
}

func TestScanMaps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("SELECT id, title, translator_id FROM books").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "translator_id"}).
			AddRow(1, []byte("Go in Practice"), nil).
			AddRow(2, "SQL Joins", 2))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id, title, translator_id FROM books", []any{}, rows))
	maps, err := ScanMaps(rows)
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.EqualValues(t, 1, maps[0]["id"])
	assert.Equal(t, []byte("Go in Practice"), maps[0]["title"])
	assert.Nil(t, maps[0]["translator_id"])
	assert.EqualValues(t, 2, maps[1]["translator_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanMaps_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectQuery("SELECT id FROM books").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).RowError(0, errors.New("broken row")))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id FROM books", []any{}, rows))
	_, err = ScanMaps(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
}

func TestConn_InvalidArguments(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	err = drv.Query(ctx, "SELECT 1", "not-a-slice", &Rows{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect []any for args")

	var titles []string
	err = drv.Query(ctx, "SELECT 1", []any{}, &titles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Rows")

	err = drv.Exec(ctx, "DELETE FROM books", []any{}, &titles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Result")
}
