package metadata

import (
	"errors"
	"strings"
	"testing"

	"github.com/syssam/relmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func library(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(
		Define("Author",
			Field("id"),
			Field("name"),
			Field("email").Column("email_address"),
			OneHasMany("books", "Book", "author").OrderBy("title", DESC),
		),
		Define("Book",
			Field("id"),
			Field("title"),
			ManyHasOne("author", "Author", "books"),
			ManyHasMany("tags", "Tag", "books").Owning(),
		),
		Define("Tag",
			Field("id"),
			Field("name"),
			ManyHasMany("books", "Book", "tags"),
		),
	)
	require.NoError(t, err)
	return s
}

func TestStorage_Get(t *testing.T) {
	s := library(t)
	assert.Equal(t, []string{"Author", "Book", "Tag"}, s.Types())

	book, err := s.Get("Book")
	require.NoError(t, err)
	assert.Equal(t, "Book", book.Type)

	_, err = s.Get("Shelf")
	require.Error(t, err)
	assert.True(t, relmap.IsNotFound(err))
	assert.EqualError(t, err, `relmap: entity "Shelf" not found`)
}

func TestEntity_Property(t *testing.T) {
	s := library(t)
	author, err := s.Get("Author")
	require.NoError(t, err)

	p, err := author.Property("email")
	require.NoError(t, err)
	assert.False(t, p.IsRelationship())
	assert.Equal(t, "email_address", p.Column)

	p, err = author.Property("books")
	require.NoError(t, err)
	require.True(t, p.IsRelationship())
	assert.Equal(t, OneToMany, p.Relationship.Shape)
	assert.Equal(t, &Order{Expression: "title", Direction: DESC}, p.Relationship.Order)

	_, err = author.Property("born")
	require.Error(t, err)
	assert.True(t, relmap.IsPropertyNotFound(err))
	assert.True(t, errors.Is(err, relmap.ErrInvalidArgument))

	names := make([]string, 0, 4)
	for _, p := range author.Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"id", "name", "email", "books"}, names)
	assert.True(t, author.HasProperty("name"))
	assert.False(t, author.HasProperty("born"))
}

func TestEntity_AddPropertyReplaces(t *testing.T) {
	e := Define("Tag", Field("name"))
	e.AddProperty(&Property{Name: "name", Column: "label"})
	require.Len(t, e.Properties(), 1)
	p, err := e.Property("name")
	require.NoError(t, err)
	assert.Equal(t, "label", p.Column)
}

func TestNewStorage_Validation(t *testing.T) {
	tests := []struct {
		name     string
		entities []*Entity
		wantMsg  string
	}{
		{
			name:     "unknown target",
			entities: []*Entity{Define("Book", ManyHasOne("author", "Author", ""))},
			wantMsg:  `Book.author targets unknown entity "Author"`,
		},
		{
			name: "one-to-many without reciprocal",
			entities: []*Entity{
				Define("Author", OneHasMany("books", "Book", "")),
				Define("Book"),
			},
			wantMsg: "one-to-many requires a reciprocal property",
		},
		{
			name: "reciprocal is a field",
			entities: []*Entity{
				Define("Author", OneHasMany("books", "Book", "author")),
				Define("Book", Field("author")),
			},
			wantMsg: "reciprocal Book.author is not a relationship",
		},
		{
			name: "shape mismatch",
			entities: []*Entity{
				Define("Author", OneHasMany("books", "Book", "author")),
				Define("Book", OneHasMany("author", "Author", "books")),
			},
			wantMsg: "reciprocal of one-to-many must be many-to-one",
		},
		{
			name: "both sides owning",
			entities: []*Entity{
				Define("Book", ManyHasMany("tags", "Tag", "books").Owning()),
				Define("Tag", ManyHasMany("books", "Book", "tags").Owning()),
			},
			wantMsg: "exactly one side of a many-to-many must be owning",
		},
		{
			name: "non-owning without reciprocal",
			entities: []*Entity{
				Define("Book", ManyHasMany("tags", "Tag", "")),
				Define("Tag"),
			},
			wantMsg: "non-owning many-to-many requires a reciprocal property",
		},
		{
			name: "reciprocal points elsewhere",
			entities: []*Entity{
				Define("Author", OneHasMany("books", "Book", "author")),
				Define("Book", ManyHasOne("author", "Author", "novels")),
			},
			wantMsg: "reciprocal Book.author does not point back",
		},
		{
			name: "order on many-to-one",
			entities: []*Entity{
				Define("Author"),
				Define("Book", ManyHasOne("author", "Author", "").OrderBy("name", ASC)),
			},
			wantMsg: "only to-many relationships can carry an order",
		},
		{
			name: "join table on one-to-many",
			entities: []*Entity{
				Define("Author", OneHasMany("books", "Book", "author").JoinTable("x", "a", "b")),
				Define("Book", ManyHasOne("author", "Author", "books")),
			},
			wantMsg: "join table is only valid for many-to-many",
		},
		{
			name:     "duplicate entity",
			entities: []*Entity{Define("Book"), Define("Book")},
			wantMsg:  "entity Book declared twice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStorage(tt.entities...)
			require.Error(t, err)
			assert.True(t, relmap.IsInvariant(err))
			assert.True(t, errors.Is(err, relmap.ErrInvariant))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewStorage_CollectsAllErrors(t *testing.T) {
	_, err := NewStorage(
		Define("Book",
			ManyHasOne("author", "Author", ""),
			ManyHasOne("publisher", "Publisher", ""),
		),
	)
	require.Error(t, err)
	var agg *relmap.AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 2)
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{
		"many-to-one":  ManyToOne,
		"M2O":          ManyToOne,
		"one-to-many":  OneToMany,
		"o2m":          OneToMany,
		"many-to-many": ManyToMany,
		" m2m ":        ManyToMany,
	} {
		got, err := ParseShape(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseShape("one-to-one")
	require.Error(t, err)

	assert.Equal(t, "many-to-many", ManyToMany.String())
	assert.Equal(t, "Shape(0)", Shape(0).String())
	assert.True(t, OneToMany.IsToMany())
	assert.True(t, ManyToMany.IsToMany())
	assert.False(t, ManyToOne.IsToMany())
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": ASC, "asc": ASC, "DESC": DESC, " desc ": DESC} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDirection("up")
	require.Error(t, err)
}

const libraryYAML = `
entities:
  - type: Author
    table: writers
    properties:
      - name: id
      - name: name
      - name: books
        relationship:
          shape: one-to-many
          target: Book
          reciprocal: author
          order: {expression: title, direction: desc}
  - type: Book
    primaryKey: book_id
    properties:
      - name: title
      - name: author
        column: writer_id
        relationship: {shape: m2o, target: Author, reciprocal: books}
      - name: tags
        relationship:
          shape: many-to-many
          owning: true
          target: Tag
          reciprocal: books
          joinTable: book_tags
          joinColumns: [book, tag]
  - type: Tag
    properties:
      - name: name
      - name: books
        relationship: {shape: m2m, target: Book, reciprocal: tags}
`

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(libraryYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"Author", "Book", "Tag"}, s.Types())

	author, err := s.Get("Author")
	require.NoError(t, err)
	assert.Equal(t, "writers", author.Table)
	books, err := author.Property("books")
	require.NoError(t, err)
	assert.Equal(t, &Relationship{
		Shape:      OneToMany,
		Target:     "Book",
		Reciprocal: "author",
		Order:      &Order{Expression: "title", Direction: DESC},
	}, books.Relationship)

	book, err := s.Get("Book")
	require.NoError(t, err)
	assert.Equal(t, "book_id", book.PrimaryKey)
	a, err := book.Property("author")
	require.NoError(t, err)
	assert.Equal(t, "writer_id", a.Column)
	tags, err := book.Property("tags")
	require.NoError(t, err)
	assert.True(t, tags.Relationship.IsOwning)
	assert.Equal(t, "book_tags", tags.Relationship.JoinTable)
	assert.Equal(t, []string{"book", "tag"}, tags.Relationship.JoinColumns)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "entities:\n  - type: Book\n    colour: red\n",
		"bad shape":      "entities:\n  - type: Book\n    properties:\n      - name: x\n        relationship: {shape: one-to-one, target: Book}\n",
		"bad direction":  "entities:\n  - type: A\n    properties:\n      - name: b\n        relationship: {shape: o2m, target: A, reciprocal: a, order: {expression: id, direction: up}}\n",
		"missing type":   "entities:\n  - properties: []\n",
		"missing name":   "entities:\n  - type: Book\n    properties:\n      - column: x\n",
		"invalid syntax": "entities: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "metadata: "), err.Error())
		})
	}

	s, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Types())
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata: read file")

	s, err := LoadFile("testdata/library.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Author", "Book", "Country", "Publisher", "Tag"}, s.Types())
}
