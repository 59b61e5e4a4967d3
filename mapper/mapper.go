// Package mapper defines how entity types map onto storage: table names,
// storage reflection of properties to columns, many-to-many bridge tables
// and the factory of lazily fetched one-to-many collections.
package mapper

import (
	"context"

	"github.com/syssam/relmap/entity"
	"github.com/syssam/relmap/metadata"
)

// StorageReflection translates entity properties into storage columns.
type StorageReflection interface {
	// ConvertEntityToStorageKey returns the column storing the property.
	ConvertEntityToStorageKey(property string) string
	// StoragePrimaryKey returns the primary key columns.
	StoragePrimaryKey() []string
}

// JoinParameters describe the bridge table of a many-to-many relationship.
// InColumn references the source side, OutColumn the target side.
type JoinParameters struct {
	Table     string
	InColumn  string
	OutColumn string
}

// Collection is a lazily fetched set of entities.
type Collection interface {
	// Fetch queries storage and returns the entities of the collection.
	Fetch(ctx context.Context) ([]entity.Entity, error)
	// OrderBy returns a copy of the collection ordered by expr.
	OrderBy(expr string, dir metadata.Direction) Collection
}

// Mapper maps one entity type onto storage.
type Mapper interface {
	// EntityType returns the metadata type the mapper serves.
	EntityType() string
	// TableName returns the storage table of the entity type.
	TableName() string
	// StorageReflection returns the property to column translation.
	StorageReflection() StorageReflection
	// ManyToManyJoinParameters returns the bridge table linking the
	// entities of this mapper (in) to the entities of target (out).
	ManyToManyJoinParameters(target Mapper) (JoinParameters, error)
	// CreateOneToManyCollection returns the collection of the entities
	// of this mapper referencing parent through the reciprocal of prop.
	CreateOneToManyCollection(prop *metadata.Property, parent entity.Entity) Collection
}
