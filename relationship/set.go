package relationship

import (
	"slices"

	"github.com/syssam/relmap/entity"
)

// entitySet is an insertion-ordered set of entities keyed by identity.
type entitySet struct {
	items []entity.Entity
	index map[entity.Entity]struct{}
}

func newEntitySet() *entitySet {
	return &entitySet{index: make(map[entity.Entity]struct{})}
}

func (s *entitySet) add(e entity.Entity) bool {
	if _, ok := s.index[e]; ok {
		return false
	}
	s.index[e] = struct{}{}
	s.items = append(s.items, e)
	return true
}

func (s *entitySet) remove(e entity.Entity) bool {
	if _, ok := s.index[e]; !ok {
		return false
	}
	delete(s.index, e)
	s.items = slices.DeleteFunc(s.items, func(x entity.Entity) bool { return x == e })
	return true
}

func (s *entitySet) has(e entity.Entity) bool {
	_, ok := s.index[e]
	return ok
}

func (s *entitySet) len() int {
	return len(s.items)
}

func (s *entitySet) values() []entity.Entity {
	return slices.Clone(s.items)
}

func (s *entitySet) clear() {
	s.items = nil
	clear(s.index)
}
