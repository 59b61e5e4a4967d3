// Package metadata describes entities, their properties and the relationships
// between them. The query compilers walk this graph to translate property
// paths into joins.
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/relmap"
)

// Shape is the cardinality of a relationship, seen from the side that
// declares it.
type Shape int

// Relationship shapes.
const (
	// ManyToOne means the declaring entity holds the foreign key.
	ManyToOne Shape = iota + 1
	// OneToMany means the target entity holds a foreign key to the declaring one.
	OneToMany
	// ManyToMany means both sides are linked through a bridge table.
	ManyToMany
)

var shapeNames = map[Shape]string{
	ManyToOne:  "many-to-one",
	OneToMany:  "one-to-many",
	ManyToMany: "many-to-many",
}

// String implements the fmt.Stringer interface.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// IsToMany reports whether traversing the relationship may multiply rows.
func (s Shape) IsToMany() bool {
	return s == OneToMany || s == ManyToMany
}

// ParseShape parses a shape name. Besides the names returned by String it
// accepts the short forms "m2o", "o2m" and "m2m".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "many-to-one", "m2o", "manytoone":
		return ManyToOne, nil
	case "one-to-many", "o2m", "onetomany":
		return OneToMany, nil
	case "many-to-many", "m2m", "manytomany":
		return ManyToMany, nil
	}
	return 0, fmt.Errorf("metadata: unknown relationship shape %q", s)
}

// Direction is an ordering direction.
type Direction string

// Ordering directions.
const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// ParseDirection parses "asc" or "desc" in any case. An empty string is ASC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return ASC, nil
	case "DESC":
		return DESC, nil
	}
	return "", fmt.Errorf("metadata: unknown order direction %q", s)
}

// Order is a default ordering of a to-many relationship collection.
type Order struct {
	Expression string
	Direction  Direction
}

// Relationship describes the relationship a property holds.
type Relationship struct {
	Shape Shape
	// IsOwning marks the side of a many-to-many relationship whose mapper
	// provides the bridge table parameters. It is ignored by other shapes.
	IsOwning bool
	// Target is the entity type on the other side.
	Target string
	// Reciprocal is the property on Target mirroring this one. It may be
	// empty for unidirectional many-to-one and owning many-to-many sides.
	Reciprocal string
	// Order is the default ordering of the collection, if any.
	Order *Order
	// JoinTable and JoinColumns override the bridge table naming of an
	// owning many-to-many side. JoinColumns is (in, out) when set.
	JoinTable   string
	JoinColumns []string
}

// Property is a property of an entity.
type Property struct {
	Name string
	// Column overrides the storage column derived from Name.
	Column       string
	Relationship *Relationship
}

// IsRelationship reports whether the property holds a relationship.
func (p *Property) IsRelationship() bool {
	return p.Relationship != nil
}

// Entity is the metadata of one entity type.
type Entity struct {
	Type string
	// Table overrides the table name derived from Type.
	Table string
	// PrimaryKey overrides the primary key column ("id").
	PrimaryKey string

	names []string
	props map[string]*Property
}

// NewEntity returns entity metadata for typ with the given properties.
func NewEntity(typ string, props ...*Property) *Entity {
	e := &Entity{Type: typ, props: make(map[string]*Property, len(props))}
	for _, p := range props {
		e.AddProperty(p)
	}
	return e
}

// AddProperty adds p, replacing a property with the same name.
func (e *Entity) AddProperty(p *Property) {
	if e.props == nil {
		e.props = make(map[string]*Property)
	}
	if _, ok := e.props[p.Name]; !ok {
		e.names = append(e.names, p.Name)
	}
	e.props[p.Name] = p
}

// Property returns the property with the given name.
func (e *Entity) Property(name string) (*Property, error) {
	p, ok := e.props[name]
	if !ok {
		return nil, relmap.NewPropertyNotFoundError(e.Type, name)
	}
	return p, nil
}

// HasProperty reports whether the entity declares name.
func (e *Entity) HasProperty(name string) bool {
	_, ok := e.props[name]
	return ok
}

// Properties returns the properties in declaration order.
func (e *Entity) Properties() []*Property {
	out := make([]*Property, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, e.props[name])
	}
	return out
}

// Storage holds the metadata of all entity types. It is read-only once built.
type Storage struct {
	entities map[string]*Entity
}

// NewStorage builds a Storage from the given entities and validates the
// relationships between them. All problems found are reported together.
func NewStorage(entities ...*Entity) (*Storage, error) {
	s := &Storage{entities: make(map[string]*Entity, len(entities))}
	var errs []error
	for _, e := range entities {
		if _, ok := s.entities[e.Type]; ok {
			errs = append(errs, relmap.NewInvariantError("entity %s declared twice", e.Type))
			continue
		}
		s.entities[e.Type] = e
	}
	errs = append(errs, s.validate()...)
	if err := relmap.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the metadata of the entity type.
func (s *Storage) Get(typ string) (*Entity, error) {
	e, ok := s.entities[typ]
	if !ok {
		return nil, relmap.NewNotFoundError("entity", typ)
	}
	return e, nil
}

// Types returns the registered entity types, sorted.
func (s *Storage) Types() []string {
	types := make([]string, 0, len(s.entities))
	for typ := range s.entities {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

func (s *Storage) validate() []error {
	var errs []error
	for _, typ := range s.Types() {
		e := s.entities[typ]
		for _, p := range e.Properties() {
			if p.Relationship != nil {
				errs = append(errs, s.validateRelationship(e, p)...)
			}
		}
	}
	return errs
}

func (s *Storage) validateRelationship(e *Entity, p *Property) []error {
	rel := p.Relationship
	name := e.Type + "." + p.Name
	if _, ok := shapeNames[rel.Shape]; !ok {
		return []error{relmap.NewInvariantError("%s has invalid shape %s", name, rel.Shape)}
	}
	target, ok := s.entities[rel.Target]
	if !ok {
		return []error{relmap.NewInvariantError("%s targets unknown entity %q", name, rel.Target)}
	}
	var errs []error
	if rel.Order != nil && rel.Shape == ManyToOne {
		errs = append(errs, relmap.NewInvariantError("%s: only to-many relationships can carry an order", name))
	}
	if rel.Shape == ManyToMany && rel.IsOwning && len(rel.JoinColumns) != 0 && len(rel.JoinColumns) != 2 {
		errs = append(errs, relmap.NewInvariantError("%s: join columns must be (in, out)", name))
	}
	if rel.Shape != ManyToMany && (rel.JoinTable != "" || len(rel.JoinColumns) > 0) {
		errs = append(errs, relmap.NewInvariantError("%s: join table is only valid for many-to-many", name))
	}
	if rel.Reciprocal == "" {
		switch {
		case rel.Shape == OneToMany:
			errs = append(errs, relmap.NewInvariantError("%s: one-to-many requires a reciprocal property", name))
		case rel.Shape == ManyToMany && !rel.IsOwning:
			errs = append(errs, relmap.NewInvariantError("%s: non-owning many-to-many requires a reciprocal property", name))
		}
		return errs
	}
	rp, ok := target.props[rel.Reciprocal]
	if !ok || rp.Relationship == nil {
		return append(errs, relmap.NewInvariantError("%s: reciprocal %s.%s is not a relationship", name, target.Type, rel.Reciprocal))
	}
	rr := rp.Relationship
	if rr.Target != e.Type || rr.Reciprocal != p.Name {
		errs = append(errs, relmap.NewInvariantError("%s: reciprocal %s.%s does not point back", name, target.Type, rel.Reciprocal))
	}
	switch rel.Shape {
	case ManyToOne:
		if rr.Shape != OneToMany {
			errs = append(errs, relmap.NewInvariantError("%s: reciprocal of many-to-one must be one-to-many, got %s", name, rr.Shape))
		}
	case OneToMany:
		if rr.Shape != ManyToOne {
			errs = append(errs, relmap.NewInvariantError("%s: reciprocal of one-to-many must be many-to-one, got %s", name, rr.Shape))
		}
	case ManyToMany:
		switch {
		case rr.Shape != ManyToMany:
			errs = append(errs, relmap.NewInvariantError("%s: reciprocal of many-to-many must be many-to-many, got %s", name, rr.Shape))
		case rr.IsOwning == rel.IsOwning:
			errs = append(errs, relmap.NewInvariantError("%s: exactly one side of a many-to-many must be owning", name))
		}
	}
	return errs
}
