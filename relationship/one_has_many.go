// Package relationship keeps the in-memory state of relationships between
// entities until it is written to storage.
//
// A OneHasMany collection records the entities added to and removed from it
// since the last commit, and fetches the persisted members lazily. Both
// sides of a relationship are kept in sync: adding a book to an author's
// books sets the book's author, and setting the author adds the book.
package relationship

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/entity"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/metadata"
)

// HasMany is the side of a relationship holding many entities.
type HasMany interface {
	Add(e entity.Entity) error
	Remove(e entity.Entity) error
}

// OneHasMany is the to-many side of a one-to-many relationship.
//
// It is Unloaded until EnsureLoaded fetches the persisted members, and
// returns to Unloaded on Commit. It is not safe for concurrent use.
type OneHasMany struct {
	parent   entity.Entity
	property *metadata.Property
	target   mapper.Mapper
	log      *slog.Logger

	toAdd    *entitySet
	toRemove *entitySet
	snapshot []entity.Entity
	loaded   bool
	modified bool
	// updating is set while the reciprocal side is being updated, so that
	// its echo back into this collection is ignored.
	updating bool
}

// Option configures a OneHasMany.
type Option func(*OneHasMany)

// WithLogger sets the logger snapshot loads are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *OneHasMany) {
		c.log = l
	}
}

// NewOneHasMany returns the collection held by the one-to-many property
// prop of parent. Members are fetched through target, the mapper of the
// entity type on the other side.
func NewOneHasMany(parent entity.Entity, prop *metadata.Property, target mapper.Mapper, opts ...Option) (*OneHasMany, error) {
	if prop.Relationship == nil || prop.Relationship.Shape != metadata.OneToMany {
		return nil, relmap.NewInvariantError("%s.%s is not a one-to-many relationship", parent.EntityType(), prop.Name)
	}
	if target.EntityType() != prop.Relationship.Target {
		return nil, relmap.NewInvariantError("%s.%s targets %s, got mapper of %s",
			parent.EntityType(), prop.Name, prop.Relationship.Target, target.EntityType())
	}
	c := &OneHasMany{
		parent:   parent,
		property: prop,
		target:   target,
		log:      slog.Default(),
		toAdd:    newEntitySet(),
		toRemove: newEntitySet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the qualified name of the relationship, e.g. "Author.books".
func (c *OneHasMany) Name() string {
	return c.parent.EntityType() + "." + c.property.Name
}

// Add adds e to the collection and sets c's parent on the reciprocal side of e.
// Adding an entity pending removal cancels the removal.
func (c *OneHasMany) Add(e entity.Entity) error {
	if c.updating {
		return nil
	}
	if err := c.check(e); err != nil {
		return err
	}
	if !c.toRemove.remove(e) {
		c.toAdd.add(e)
	}
	c.modified = true
	return c.updateReciprocal(e, c.parent)
}

// Remove removes e from the collection and clears the reciprocal side of e.
// Removing an entity pending addition cancels the addition. The collection
// is marked modified only when e is persisted.
func (c *OneHasMany) Remove(e entity.Entity) error {
	if c.updating {
		return nil
	}
	if err := c.check(e); err != nil {
		return err
	}
	if !c.toAdd.remove(e) {
		c.toRemove.add(e)
	}
	if e.IsPersisted() {
		c.modified = true
	}
	return c.updateReciprocal(e, nil)
}

// Set replaces the members of the collection with entities.
func (c *OneHasMany) Set(ctx context.Context, entities ...entity.Entity) error {
	current, err := c.Entities(ctx)
	if err != nil {
		return err
	}
	for _, e := range current {
		if !slices.Contains(entities, e) {
			if err := c.Remove(e); err != nil {
				return err
			}
		}
	}
	for _, e := range entities {
		if !slices.Contains(current, e) {
			if err := c.Add(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *OneHasMany) check(e entity.Entity) error {
	if e == nil {
		return fmt.Errorf("relationship: %s: nil entity: %w", c.Name(), relmap.ErrInvalidArgument)
	}
	if typ := e.EntityType(); typ != c.property.Relationship.Target {
		return fmt.Errorf("relationship: %s holds %s entities, got %s: %w",
			c.Name(), c.property.Relationship.Target, typ, relmap.ErrInvalidArgument)
	}
	return nil
}

// updateReciprocal sets v on the reciprocal relationship of e, if e has one.
func (c *OneHasMany) updateReciprocal(e entity.Entity, v entity.Entity) error {
	reciprocal := c.property.Relationship.Reciprocal
	p, err := e.Property(reciprocal)
	if relmap.IsPropertyNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	setter, ok := p.(entity.InjectedValueSetter)
	if !ok {
		return nil
	}
	c.updating = true
	defer func() { c.updating = false }()
	return setter.SetInjectedValue(v)
}

// EnsureLoaded fetches the persisted members of the collection, ordered by
// the default order of the relationship, unless they were already fetched.
func (c *OneHasMany) EnsureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	coll := c.target.CreateOneToManyCollection(c.property, c.parent)
	if o := c.property.Relationship.Order; o != nil {
		coll = coll.OrderBy(o.Expression, o.Direction)
	}
	entities, err := coll.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("relationship: load %s: %w", c.Name(), err)
	}
	c.snapshot, c.loaded = entities, true
	c.log.DebugContext(ctx, "snapshot loaded", "relationship", c.Name(), "count", len(entities))
	return nil
}

// Entities loads the collection and returns its members: the fetched ones
// that are not pending removal, followed by the pending additions.
func (c *OneHasMany) Entities(ctx context.Context) ([]entity.Entity, error) {
	if err := c.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.view(), nil
}

func (c *OneHasMany) view() []entity.Entity {
	seen := newEntitySet()
	for _, e := range c.snapshot {
		if !c.toRemove.has(e) {
			seen.add(e)
		}
	}
	for _, e := range c.toAdd.items {
		seen.add(e)
	}
	return seen.items
}

// Snapshot returns the fetched members without pending changes applied.
// It fails with a NotLoadedError before EnsureLoaded.
func (c *OneHasMany) Snapshot() ([]entity.Entity, error) {
	if !c.loaded {
		return nil, relmap.NewNotLoadedError(c.Name())
	}
	return slices.Clone(c.snapshot), nil
}

// EntitiesForPersistence returns the entities the next flush of the parent
// has to consider: pending additions, persisted pending removals and, once
// loaded, the current members. Each entity appears once.
func (c *OneHasMany) EntitiesForPersistence() []entity.Entity {
	out := newEntitySet()
	for _, e := range c.toAdd.items {
		out.add(e)
	}
	for _, e := range c.toRemove.items {
		if e.IsPersisted() {
			out.add(e)
		}
	}
	if c.loaded {
		for _, e := range c.view() {
			out.add(e)
		}
	}
	return out.values()
}

// Commit discards pending changes and the fetched snapshot. It must be
// called once the parent was flushed successfully.
func (c *OneHasMany) Commit() {
	c.toAdd.clear()
	c.toRemove.clear()
	c.snapshot, c.loaded = nil, false
	c.modified = false
}

// IsLoaded reports whether the persisted members were fetched.
func (c *OneHasMany) IsLoaded() bool {
	return c.loaded
}

// IsModified reports whether the collection changed since the last commit.
func (c *OneHasMany) IsModified() bool {
	return c.modified
}

// PendingAdd returns the entities added since the last commit.
func (c *OneHasMany) PendingAdd() []entity.Entity {
	return c.toAdd.values()
}

// PendingRemove returns the entities removed since the last commit.
func (c *OneHasMany) PendingRemove() []entity.Entity {
	return c.toRemove.values()
}

var _ HasMany = (*OneHasMany)(nil)
