// Package sqlmapper implements mapper.Mapper over a dialect.Driver.
package sqlmapper

import (
	"log/slog"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/entity"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/metadata"
)

// HydrateFunc builds an entity from a fetched row keyed by column.
type HydrateFunc func(meta *metadata.Entity, reflection *mapper.Conventions, row map[string]any) (entity.Entity, error)

// Mapper maps one entity type onto a SQL table.
type Mapper struct {
	model      *mapper.Model
	meta       *metadata.Entity
	driver     dialect.Driver
	reflection *mapper.Conventions
	hydrate    HydrateFunc
	log        *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithHydrator sets the function turning fetched rows into entities.
func WithHydrator(fn HydrateFunc) Option {
	return func(m *Mapper) {
		m.hydrate = fn
	}
}

// WithLogger sets the logger of the mapper and of the statements it compiles.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) {
		m.log = l
	}
}

// New returns the mapper of the entity type typ.
func New(model *mapper.Model, typ string, drv dialect.Driver, opts ...Option) (*Mapper, error) {
	meta, err := model.Entity(typ)
	if err != nil {
		return nil, err
	}
	m := &Mapper{
		model:      model,
		meta:       meta,
		driver:     drv,
		reflection: mapper.NewConventions(meta),
		hydrate:    Hydrate,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Register creates and registers the mapper of every entity type declared
// in the model metadata.
func Register(model *mapper.Model, drv dialect.Driver, opts ...Option) error {
	for _, typ := range model.Metadata().Types() {
		m, err := New(model, typ, drv, opts...)
		if err != nil {
			return err
		}
		if err := model.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// EntityType implements mapper.Mapper.
func (m *Mapper) EntityType() string {
	return m.meta.Type
}

// TableName implements mapper.Mapper.
func (m *Mapper) TableName() string {
	return mapper.TableName(m.meta)
}

// StorageReflection implements mapper.Mapper.
func (m *Mapper) StorageReflection() mapper.StorageReflection {
	return m.reflection
}

// Driver returns the driver collections are fetched with.
func (m *Mapper) Driver() dialect.Driver {
	return m.driver
}

// ManyToManyJoinParameters implements mapper.Mapper.
func (m *Mapper) ManyToManyJoinParameters(target mapper.Mapper) (mapper.JoinParameters, error) {
	meta, err := m.model.Entity(target.EntityType())
	if err != nil {
		return mapper.JoinParameters{}, err
	}
	return mapper.DefaultJoinParameters(m.meta, meta)
}

// CreateOneToManyCollection implements mapper.Mapper. The returned
// collection selects the rows of this mapper whose reciprocal of prop
// references parent.
func (m *Mapper) CreateOneToManyCollection(prop *metadata.Property, parent entity.Entity) mapper.Collection {
	var reciprocal string
	if prop.Relationship != nil {
		reciprocal = prop.Relationship.Reciprocal
	}
	return &Collection{mapper: m, property: reciprocal, parent: parent}
}

// Hydrate is the default HydrateFunc. Columns of scalar properties are set
// under the property name; other columns are ignored. The row must hold the
// primary key.
func Hydrate(meta *metadata.Entity, reflection *mapper.Conventions, row map[string]any) (entity.Entity, error) {
	pk := reflection.StoragePrimaryKey()[0]
	id, ok := row[pk]
	if !ok {
		return nil, relmap.NewInvariantError("%s row lacks primary key column %s", meta.Type, pk)
	}
	e := entity.New(meta.Type)
	for _, p := range meta.Properties() {
		if p.IsRelationship() {
			continue
		}
		if v, ok := row[reflection.ConvertEntityToStorageKey(p.Name)]; ok {
			e.Set(p.Name, v)
		}
	}
	return e.MarkPersisted(id), nil
}

var _ mapper.Mapper = (*Mapper)(nil)
