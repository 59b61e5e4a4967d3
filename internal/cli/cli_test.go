package cli

import (
	"bytes"
	stdsql "database/sql"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/internal/librarytest"
)

const libraryYAML = "../../metadata/testdata/library.yaml"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "relmap", cmd.Use)
	for _, name := range []string{"explain", "query"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "explain", "--format", "xml", "-m", libraryYAML, "-e", "Book")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExplain(t *testing.T) {
	stdout, _, err := execute(t, "explain", "-m", libraryYAML, "-e", "Book", "-d", "postgres",
		"-w", `{"tags.name": ["go", "sql"], "author.name": "Ann"}`,
		"-o", "title:desc", "--limit", "10")
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT books.* FROM books"+
		" LEFT JOIN authors ON books.author_id = authors.id"+
		" LEFT JOIN books_x_tags ON books.id = books_x_tags.book_id"+
		" LEFT JOIN tags ON books_x_tags.tag_id = tags.id"+
		" WHERE (authors.name = $1) AND (tags.name IN ($2, $3))"+
		" ORDER BY books.title DESC LIMIT 10\n"+
		"args: [Ann go sql]\n"+
		"distinct: true\n", stdout)
}

func TestExplain_JSON(t *testing.T) {
	stdout, _, err := execute(t, "explain", "--format", "json", "-m", libraryYAML, "-e", "Author",
		"-w", `{"born>": 1975, "status": null}`)
	require.Error(t, err, "Author has no status property")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, relmap.IsPropertyNotFound(err))
	assert.Contains(t, stdout, `"status": "error"`)

	stdout, _, err = execute(t, "explain", "--format", "json", "-m", libraryYAML, "-e", "Author",
		"-w", `{"born>": 1975, "email": null}`)
	require.NoError(t, err)
	var resp struct {
		Status string   `json:"status"`
		Data   Compiled `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT authors.* FROM authors WHERE (authors.born > ?) AND (authors.email IS NULL)", resp.Data.Query)
	assert.Equal(t, []any{float64(1975)}, resp.Data.Args)
	assert.False(t, resp.Data.Distinct)
}

func TestExplain_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing metadata", []string{"-m", "testdata/missing.yaml", "-e", "Book"}, ExitCommandError},
		{"unknown dialect", []string{"-m", libraryYAML, "-e", "Book", "-d", "oracle"}, ExitCommandError},
		{"unknown entity", []string{"-m", libraryYAML, "-e", "Shelf"}, ExitFailure},
		{"bad where", []string{"-m", libraryYAML, "-e", "Book", "-w", "[1]"}, ExitFailure},
		{"bad direction", []string{"-m", libraryYAML, "-e", "Book", "-o", "title:up"}, ExitFailure},
		{"ambiguous order", []string{"-m", libraryYAML, "-e", "Author", "-o", "books.title"}, ExitFailure},
		{"invalid expression", []string{"-m", libraryYAML, "-e", "Book", "-w", `{"author..name": 1}`}, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"explain"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}

func TestParseWhere(t *testing.T) {
	where, err := parseWhere(`{"id": [1, 2.5], "name": "Ann", "email": null}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": []any{int64(1), 2.5}, "name": "Ann", "email": nil}, where)

	where, err = parseWhere("  ")
	require.NoError(t, err)
	assert.Nil(t, where)
}

func libraryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	db, err := stdsql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(librarytest.Schema)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func TestQuery(t *testing.T) {
	dsn := libraryDB(t)

	stdout, stderr, err := execute(t, "query", "-v", "--driver", "sqlite", "--dsn", dsn,
		"-m", libraryYAML, "-e", "Author", "-w", `{"books.title": "SQL Joins"}`)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ann")
	assert.NotContains(t, stdout, "Bob")
	assert.Contains(t, stdout, "(1 rows)")
	assert.Contains(t, stderr, "SELECT DISTINCT authors.*")

	stdout, _, err = execute(t, "query", "--format", "json", "--dsn", dsn,
		"-m", libraryYAML, "-e", "Book", "-o", "author.name:desc", "-o", "title")
	require.NoError(t, err)
	var resp struct {
		Data QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	var titles []any
	for _, row := range resp.Data.Rows {
		titles = append(titles, row["title"])
	}
	assert.Equal(t, []any{"Advanced Go", "Go in Practice", "SQL Joins"}, titles)
	assert.Contains(t, resp.Data.Columns, "author_id")
}

func TestQuery_RequiresDSN(t *testing.T) {
	t.Setenv(EnvDSN, "")
	_, _, err := execute(t, "query", "-m", libraryYAML, "-e", "Book")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
