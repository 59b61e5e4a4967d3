package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a metadata Storage.
//
//	entities:
//	  - type: Book
//	    properties:
//	      - name: title
//	      - name: author
//	        relationship: {shape: many-to-one, target: Author, reciprocal: books}
//	      - name: tags
//	        relationship:
//	          shape: many-to-many
//	          owning: true
//	          target: Tag
//	          reciprocal: books
//	          joinTable: books_x_tags
//	          joinColumns: [book_id, tag_id]
type Document struct {
	Entities []EntityDoc `yaml:"entities"`
}

// EntityDoc is the YAML form of an Entity.
type EntityDoc struct {
	Type       string        `yaml:"type"`
	Table      string        `yaml:"table,omitempty"`
	PrimaryKey string        `yaml:"primaryKey,omitempty"`
	Properties []PropertyDoc `yaml:"properties"`
}

// PropertyDoc is the YAML form of a Property.
type PropertyDoc struct {
	Name         string           `yaml:"name"`
	Column       string           `yaml:"column,omitempty"`
	Relationship *RelationshipDoc `yaml:"relationship,omitempty"`
}

// RelationshipDoc is the YAML form of a Relationship.
type RelationshipDoc struct {
	Shape       string    `yaml:"shape"`
	Owning      bool      `yaml:"owning,omitempty"`
	Target      string    `yaml:"target"`
	Reciprocal  string    `yaml:"reciprocal,omitempty"`
	Order       *OrderDoc `yaml:"order,omitempty"`
	JoinTable   string    `yaml:"joinTable,omitempty"`
	JoinColumns []string  `yaml:"joinColumns,omitempty"`
}

// OrderDoc is the YAML form of an Order.
type OrderDoc struct {
	Expression string `yaml:"expression"`
	Direction  string `yaml:"direction,omitempty"`
}

// LoadFile reads a YAML metadata file and builds the Storage it describes.
func LoadFile(path string) (*Storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: read file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes a YAML metadata document from r. Unknown fields are
// rejected.
func LoadYAML(r io.Reader) (*Storage, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("metadata: parse yaml: %w", err)
	}
	return doc.Storage()
}

// Storage converts the document into a validated Storage.
func (d *Document) Storage() (*Storage, error) {
	entities := make([]*Entity, 0, len(d.Entities))
	for _, ed := range d.Entities {
		if ed.Type == "" {
			return nil, fmt.Errorf("metadata: entity type is required")
		}
		e := NewEntity(ed.Type)
		e.Table, e.PrimaryKey = ed.Table, ed.PrimaryKey
		for _, pd := range ed.Properties {
			p, err := pd.property()
			if err != nil {
				return nil, fmt.Errorf("metadata: %s.%s: %w", ed.Type, pd.Name, err)
			}
			e.AddProperty(p)
		}
		entities = append(entities, e)
	}
	return NewStorage(entities...)
}

func (pd PropertyDoc) property() (*Property, error) {
	if pd.Name == "" {
		return nil, fmt.Errorf("property name is required")
	}
	p := &Property{Name: pd.Name, Column: pd.Column}
	rd := pd.Relationship
	if rd == nil {
		return p, nil
	}
	shape, err := ParseShape(rd.Shape)
	if err != nil {
		return nil, err
	}
	p.Relationship = &Relationship{
		Shape:       shape,
		IsOwning:    rd.Owning,
		Target:      rd.Target,
		Reciprocal:  rd.Reciprocal,
		JoinTable:   rd.JoinTable,
		JoinColumns: rd.JoinColumns,
	}
	if rd.Order != nil {
		dir, err := ParseDirection(rd.Order.Direction)
		if err != nil {
			return nil, err
		}
		p.Relationship.Order = &Order{Expression: rd.Order.Expression, Direction: dir}
	}
	return p, nil
}
