package metadata

// Field returns a scalar property.
func Field(name string) *PropertyBuilder {
	return &PropertyBuilder{p: &Property{Name: name}}
}

// ManyHasOne returns a many-to-one relationship property. The declaring
// entity holds the foreign key.
//
//	metadata.ManyHasOne("author", "Author", "books")
func ManyHasOne(name, target, reciprocal string) *PropertyBuilder {
	return relationship(name, ManyToOne, target, reciprocal)
}

// OneHasMany returns a one-to-many relationship property. The reciprocal is
// the many-to-one property on target holding the foreign key.
func OneHasMany(name, target, reciprocal string) *PropertyBuilder {
	return relationship(name, OneToMany, target, reciprocal)
}

// ManyHasMany returns a non-owning many-to-many relationship property. Call
// Owning on exactly one of the two sides.
func ManyHasMany(name, target, reciprocal string) *PropertyBuilder {
	return relationship(name, ManyToMany, target, reciprocal)
}

func relationship(name string, shape Shape, target, reciprocal string) *PropertyBuilder {
	return &PropertyBuilder{p: &Property{
		Name: name,
		Relationship: &Relationship{
			Shape:      shape,
			Target:     target,
			Reciprocal: reciprocal,
		},
	}}
}

// PropertyBuilder configures a Property.
type PropertyBuilder struct {
	p *Property
}

// Column overrides the storage column.
func (b *PropertyBuilder) Column(column string) *PropertyBuilder {
	b.p.Column = column
	return b
}

// Owning marks a many-to-many side as owning.
func (b *PropertyBuilder) Owning() *PropertyBuilder {
	if b.p.Relationship != nil {
		b.p.Relationship.IsOwning = true
	}
	return b
}

// OrderBy sets the default ordering of a to-many collection.
func (b *PropertyBuilder) OrderBy(expr string, dir Direction) *PropertyBuilder {
	if b.p.Relationship != nil {
		b.p.Relationship.Order = &Order{Expression: expr, Direction: dir}
	}
	return b
}

// JoinTable overrides the bridge table of an owning many-to-many side.
func (b *PropertyBuilder) JoinTable(table, in, out string) *PropertyBuilder {
	if b.p.Relationship != nil {
		b.p.Relationship.JoinTable = table
		b.p.Relationship.JoinColumns = []string{in, out}
	}
	return b
}

// Property returns the configured property.
func (b *PropertyBuilder) Property() *Property {
	return b.p
}

// Define returns entity metadata built from property builders.
//
//	metadata.Define("Book",
//		metadata.Field("id"),
//		metadata.Field("title"),
//		metadata.ManyHasOne("author", "Author", "books"),
//		metadata.ManyHasMany("tags", "Tag", "books").Owning(),
//	)
func Define(typ string, props ...*PropertyBuilder) *Entity {
	e := NewEntity(typ)
	for _, b := range props {
		e.AddProperty(b.Property())
	}
	return e
}
