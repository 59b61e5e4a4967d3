package relationship

import (
	"fmt"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/entity"
	"github.com/syssam/relmap/metadata"
)

// ManyHasOne is the to-one side of a one-to-many relationship: the property
// of a child entity referencing its parent.
type ManyHasOne struct {
	child    entity.Entity
	property *metadata.Property
	value    entity.Entity
	modified bool
	// updating suppresses the echo of the parent collections while they
	// are being updated from here.
	updating bool
}

// NewManyHasOne returns the relationship held by the many-to-one property
// prop of child.
func NewManyHasOne(child entity.Entity, prop *metadata.Property) (*ManyHasOne, error) {
	if prop.Relationship == nil || prop.Relationship.Shape != metadata.ManyToOne {
		return nil, relmap.NewInvariantError("%s.%s is not a many-to-one relationship", child.EntityType(), prop.Name)
	}
	return &ManyHasOne{child: child, property: prop}, nil
}

// Get returns the referenced parent, or nil.
func (r *ManyHasOne) Get() entity.Entity {
	return r.value
}

// Set references parent, which may be nil. The child is removed from the
// collection of the previous parent and added to the one of the new parent.
func (r *ManyHasOne) Set(parent entity.Entity) error {
	if r.updating || parent == r.value {
		return nil
	}
	if parent != nil && parent.EntityType() != r.property.Relationship.Target {
		return fmt.Errorf("relationship: %s.%s references %s entities, got %s: %w",
			r.child.EntityType(), r.property.Name, r.property.Relationship.Target, parent.EntityType(), relmap.ErrInvalidArgument)
	}
	prev := r.value
	r.value, r.modified = parent, true

	r.updating = true
	defer func() { r.updating = false }()
	if prev != nil {
		c, err := r.collection(prev)
		if err != nil {
			return err
		}
		if c != nil {
			if err := c.Remove(r.child); err != nil {
				return err
			}
		}
	}
	if parent != nil {
		c, err := r.collection(parent)
		if err != nil {
			return err
		}
		if c != nil {
			return c.Add(r.child)
		}
	}
	return nil
}

// SetInjectedValue implements entity.InjectedValueSetter. It accepts an
// entity.Entity or nil.
func (r *ManyHasOne) SetInjectedValue(v any) error {
	if v == nil {
		return r.Set(nil)
	}
	parent, ok := v.(entity.Entity)
	if !ok {
		return fmt.Errorf("relationship: %s.%s: cannot inject %T: %w", r.child.EntityType(), r.property.Name, v, relmap.ErrInvalidArgument)
	}
	return r.Set(parent)
}

// IsModified reports whether the reference changed since the last commit.
func (r *ManyHasOne) IsModified() bool {
	return r.modified
}

// Commit marks the reference as stored.
func (r *ManyHasOne) Commit() {
	r.modified = false
}

// collection returns the reciprocal collection of parent, or nil when the
// relationship is unidirectional or the parent does not expose it.
func (r *ManyHasOne) collection(parent entity.Entity) (HasMany, error) {
	name := r.property.Relationship.Reciprocal
	if name == "" {
		return nil, nil
	}
	v, err := parent.Property(name)
	if relmap.IsPropertyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, _ := v.(HasMany)
	return c, nil
}

var _ entity.InjectedValueSetter = (*ManyHasOne)(nil)
