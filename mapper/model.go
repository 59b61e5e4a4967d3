package mapper

import (
	"sort"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/metadata"
)

// Model registers the mapper of every entity type and gives the compilers
// access to the metadata they describe.
type Model struct {
	storage *metadata.Storage
	mappers map[string]Mapper
}

// NewModel returns an empty model over the metadata storage.
func NewModel(storage *metadata.Storage) *Model {
	return &Model{storage: storage, mappers: make(map[string]Mapper)}
}

// Register adds mappers to the model. The entity type of each mapper must
// be declared in metadata, and may be registered once.
func (m *Model) Register(mappers ...Mapper) error {
	for _, mp := range mappers {
		typ := mp.EntityType()
		if _, err := m.storage.Get(typ); err != nil {
			return err
		}
		if _, ok := m.mappers[typ]; ok {
			return relmap.NewInvariantError("mapper for %s registered twice", typ)
		}
		m.mappers[typ] = mp
	}
	return nil
}

// Mapper returns the mapper of the entity type.
func (m *Model) Mapper(typ string) (Mapper, error) {
	mp, ok := m.mappers[typ]
	if !ok {
		return nil, relmap.NewNotFoundError("mapper", typ)
	}
	return mp, nil
}

// Entity returns the metadata of the entity type.
func (m *Model) Entity(typ string) (*metadata.Entity, error) {
	return m.storage.Get(typ)
}

// Metadata returns the metadata storage of the model.
func (m *Model) Metadata() *metadata.Storage {
	return m.storage
}

// Types returns the entity types with a registered mapper, sorted.
func (m *Model) Types() []string {
	types := make([]string, 0, len(m.mappers))
	for typ := range m.mappers {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
