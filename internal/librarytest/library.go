// Package librarytest provides the metadata of a small library domain used
// across package tests.
//
//	Country 1-n Author 1-n Book n-n Tag
//	               1-n Book (translator)
//	Publisher 1-n Book
package librarytest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/mapper/sqlmapper"
	"github.com/syssam/relmap/metadata"
)

// Entities returns the library entity metadata.
func Entities() []*metadata.Entity {
	return []*metadata.Entity{
		metadata.Define("Country",
			metadata.Field("id"),
			metadata.Field("name"),
			metadata.OneHasMany("authors", "Author", "country"),
		),
		metadata.Define("Author",
			metadata.Field("id"),
			metadata.Field("name"),
			metadata.Field("email"),
			metadata.Field("born"),
			metadata.ManyHasOne("country", "Country", "authors"),
			metadata.OneHasMany("books", "Book", "author").OrderBy("title", metadata.ASC),
			metadata.OneHasMany("translatedBooks", "Book", "translator"),
		),
		metadata.Define("Publisher",
			metadata.Field("id"),
			metadata.Field("name"),
			metadata.OneHasMany("books", "Book", "publisher"),
		),
		metadata.Define("Book",
			metadata.Field("id"),
			metadata.Field("title"),
			metadata.Field("status"),
			metadata.Field("publishedAt"),
			metadata.ManyHasOne("author", "Author", "books"),
			metadata.ManyHasOne("translator", "Author", "translatedBooks"),
			metadata.ManyHasOne("publisher", "Publisher", "books"),
			metadata.ManyHasMany("tags", "Tag", "books").Owning(),
		),
		metadata.Define("Tag",
			metadata.Field("id"),
			metadata.Field("name"),
			metadata.ManyHasMany("books", "Book", "tags"),
		),
	}
}

// Storage returns the validated library metadata.
func Storage(t testing.TB) *metadata.Storage {
	t.Helper()
	s, err := metadata.NewStorage(Entities()...)
	require.NoError(t, err)
	return s
}

// Model returns a model with a SQL mapper registered for every library
// entity. A nil driver is fine for tests that only compile statements.
func Model(t testing.TB, drv dialect.Driver, opts ...sqlmapper.Option) *mapper.Model {
	t.Helper()
	m := mapper.NewModel(Storage(t))
	require.NoError(t, sqlmapper.Register(m, drv, opts...))
	return m
}

// Mapper returns the registered mapper of typ.
func Mapper(t testing.TB, m *mapper.Model, typ string) mapper.Mapper {
	t.Helper()
	mp, err := m.Mapper(typ)
	require.NoError(t, err)
	return mp
}

// Schema is the SQLite schema of the library tables.
const Schema = `
CREATE TABLE countries (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT, email TEXT, born INTEGER, country_id INTEGER REFERENCES countries(id));
CREATE TABLE publishers (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT, status TEXT, published_at TEXT,
	author_id INTEGER REFERENCES authors(id), translator_id INTEGER REFERENCES authors(id),
	publisher_id INTEGER REFERENCES publishers(id));
CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE books_x_tags (book_id INTEGER REFERENCES books(id), tag_id INTEGER REFERENCES tags(id));

INSERT INTO countries VALUES (1, 'CZ'), (2, 'UK');
INSERT INTO authors VALUES (1, 'Ann', 'ann@example.com', 1970, 1), (2, 'Bob', NULL, 1980, 2);
INSERT INTO publishers VALUES (1, 'Nextras');
INSERT INTO books VALUES
	(1, 'Go in Practice', 'published', '2020-01-01', 1, NULL, 1),
	(2, 'SQL Joins', 'draft', NULL, 1, 2, 1),
	(3, 'Advanced Go', NULL, NULL, 2, 1, NULL);
INSERT INTO tags VALUES (1, 'go'), (2, 'sql'), (3, 'orm');
INSERT INTO books_x_tags VALUES (1, 1), (2, 2), (2, 3), (3, 1), (3, 3);
`
