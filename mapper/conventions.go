package mapper

import (
	"github.com/go-openapi/inflect"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/metadata"
)

// DefaultPrimaryKey is the primary key column of entities that declare none.
const DefaultPrimaryKey = "id"

var rules = inflect.NewDefaultRuleset()

// TableName returns the table of an entity: its Table override, or the
// snake-cased plural of its type ("BookTag" -> "book_tags").
func TableName(e *metadata.Entity) string {
	if e.Table != "" {
		return e.Table
	}
	return rules.Underscore(rules.Pluralize(e.Type))
}

// Column returns the snake-cased column of a property name.
func Column(property string) string {
	return rules.Underscore(property)
}

// ForeignKey returns the column referencing the primary key of an entity
// type, e.g. "Book" -> "book_id".
func ForeignKey(typ string) string {
	return rules.Underscore(rules.Singularize(typ)) + "_" + DefaultPrimaryKey
}

// Conventions is the StorageReflection derived from entity metadata.
type Conventions struct {
	entity  *metadata.Entity
	columns map[string]string
}

// NewConventions returns the storage reflection of e.
func NewConventions(e *metadata.Entity) *Conventions {
	c := &Conventions{entity: e, columns: make(map[string]string)}
	for _, p := range e.Properties() {
		c.columns[p.Name] = c.column(p)
	}
	return c
}

func (c *Conventions) column(p *metadata.Property) string {
	switch {
	case p.Column != "":
		return p.Column
	case p.Relationship != nil && p.Relationship.Shape == metadata.ManyToOne:
		return Column(p.Name) + "_" + DefaultPrimaryKey
	default:
		return Column(p.Name)
	}
}

// ConvertEntityToStorageKey implements StorageReflection. Properties not
// declared in metadata are snake-cased.
func (c *Conventions) ConvertEntityToStorageKey(property string) string {
	if col, ok := c.columns[property]; ok {
		return col
	}
	return Column(property)
}

// ConvertStorageToEntityKey returns the property stored in column and
// whether one is declared.
func (c *Conventions) ConvertStorageToEntityKey(column string) (string, bool) {
	for _, p := range c.entity.Properties() {
		if c.columns[p.Name] == column {
			return p.Name, true
		}
	}
	return "", false
}

// StoragePrimaryKey implements StorageReflection.
func (c *Conventions) StoragePrimaryKey() []string {
	if c.entity.PrimaryKey != "" {
		return []string{c.entity.PrimaryKey}
	}
	return []string{DefaultPrimaryKey}
}

// DefaultJoinParameters returns the bridge table linking source to target.
// An owning many-to-many property of source targeting target may override
// the table and its columns; otherwise the table is "{source}_x_{target}"
// with foreign keys named after both entity types.
func DefaultJoinParameters(source, target *metadata.Entity) (JoinParameters, error) {
	for _, p := range source.Properties() {
		rel := p.Relationship
		if rel == nil || rel.Shape != metadata.ManyToMany || !rel.IsOwning || rel.Target != target.Type {
			continue
		}
		if rel.JoinTable == "" && len(rel.JoinColumns) == 0 {
			break
		}
		params := JoinParameters{Table: rel.JoinTable}
		if params.Table == "" {
			params.Table = TableName(source) + "_x_" + TableName(target)
		}
		if len(rel.JoinColumns) != 2 {
			return JoinParameters{}, relmap.NewInvariantError("%s.%s: join columns must be (in, out)", source.Type, p.Name)
		}
		params.InColumn, params.OutColumn = rel.JoinColumns[0], rel.JoinColumns[1]
		return params, nil
	}
	return JoinParameters{
		Table:     TableName(source) + "_x_" + TableName(target),
		InColumn:  ForeignKey(source.Type),
		OutColumn: ForeignKey(target.Type),
	}, nil
}

var _ StorageReflection = (*Conventions)(nil)
