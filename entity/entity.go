// Package entity defines the entity contract the relationship collections
// and mappers work with, and Base, a map-backed implementation of it.
package entity

import (
	"github.com/syssam/relmap"
)

// Entity is an instance of an entity type. Implementations must be
// comparable; collections track entities by identity.
type Entity interface {
	// EntityType returns the metadata type name, e.g. "Book".
	EntityType() string
	// IsPersisted reports whether the entity exists in storage.
	IsPersisted() bool
	// PersistedID returns the primary key value of a persisted entity.
	PersistedID() any
	// Property returns the value held by the named property. For
	// relationship properties this is the relationship object itself.
	Property(name string) (any, error)
}

// InjectedValueSetter is implemented by relationship objects that accept a
// value set from the other side of the relationship.
type InjectedValueSetter interface {
	SetInjectedValue(v any) error
}

// Base is a map-backed Entity.
type Base struct {
	typ       string
	id        any
	persisted bool
	names     []string
	values    map[string]any
}

// New returns an unpersisted entity of the given type.
func New(typ string) *Base {
	return &Base{typ: typ, values: make(map[string]any)}
}

// EntityType implements Entity.
func (b *Base) EntityType() string {
	return b.typ
}

// IsPersisted implements Entity.
func (b *Base) IsPersisted() bool {
	return b.persisted
}

// PersistedID implements Entity. It returns nil for unpersisted entities.
func (b *Base) PersistedID() any {
	if !b.persisted {
		return nil
	}
	return b.id
}

// MarkPersisted records that the entity was stored under id.
func (b *Base) MarkPersisted(id any) *Base {
	b.id, b.persisted = id, true
	return b
}

// Set sets a property value.
func (b *Base) Set(name string, v any) *Base {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = v
	return b
}

// Attach sets a relationship object on the named property. It is the same
// as Set and exists to make entity wiring read naturally.
func (b *Base) Attach(name string, rel any) *Base {
	return b.Set(name, rel)
}

// Get returns a property value and whether it was set.
func (b *Base) Get(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Property implements Entity.
func (b *Base) Property(name string) (any, error) {
	v, ok := b.values[name]
	if !ok {
		return nil, relmap.NewPropertyNotFoundError(b.typ, name)
	}
	return v, nil
}

// Names returns the set property names in the order they were first set.
func (b *Base) Names() []string {
	return append([]string(nil), b.names...)
}

var _ Entity = (*Base)(nil)
