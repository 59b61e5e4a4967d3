package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.SQLite, db))

	mock.ExpectQuery("SELECT id FROM books").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("DELETE FROM books_x_tags").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT broken").WillReturnError(errors.New("syntax error"))

	ctx := context.Background()
	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, "SELECT id FROM books", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, drv.Exec(ctx, "DELETE FROM books_x_tags", []any{}, nil))
	require.Error(t, drv.Query(ctx, "SELECT broken", []any{}, &Rows{}))
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.Stats()
	assert.Equal(t, int64(2), s.Queries)
	assert.Equal(t, int64(1), s.Execs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Zero(t, s.Slow)
	assert.Contains(t, s.String(), "queries=2 execs=1 errors=1")

	drv.Reset()
	assert.Equal(t, Stats{}, drv.Stats())
}

func TestStatsDriver_SlowQueryLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db), WithSlowThreshold(-time.Nanosecond), WithSlowQueryLog(logger))

	mock.ExpectQuery("SELECT title FROM books").WillReturnRows(sqlmock.NewRows([]string{"title"}))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT title FROM books WHERE id = ?", []any{1}, rows))
	require.NoError(t, rows.Close())

	assert.Equal(t, int64(1), drv.Stats().Slow)
	assert.Contains(t, buf.String(), "slow statement")
	assert.Contains(t, buf.String(), "args=[1]")
}

func TestStatsDriver_Tx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db),
		WithSlowThreshold(-time.Nanosecond),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "UPDATE books SET title = $1", []any{"x"}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(1), drv.Stats().Execs)
	assert.Equal(t, []string{"UPDATE books SET title = $1"}, slow)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.SQLite, db), logger)

	mock.ExpectQuery("SELECT title FROM books").WillReturnRows(sqlmock.NewRows([]string{"title"}))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT title FROM books", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, buf.String(), "SELECT title FROM books")
	assert.Equal(t, dialect.SQLite, drv.Dialect())
}
