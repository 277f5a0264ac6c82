package ecs

import (
	"iter"
	"reflect"

	"github.com/plus3/sparsekit/sparse"
)

// Store holds every entity's component of type T. Each component type
// gets its own sparse.Map keyed by entity index, so lookups and removal
// are O(1) and live components stay densely packed for iteration.
type Store[T any] struct {
	registry *Registry
	cells    *sparse.Map[uint32, T]
}

// StoreFor returns the component store for T under r, creating it on
// first use.
func StoreFor[T any](r *Registry) *Store[T] {
	t := reflect.TypeFor[T]()
	if s, ok := r.stores[t]; ok {
		return s.(*Store[T])
	}
	s := &Store[T]{
		registry: r,
		cells:    sparse.New[uint32, T](0),
	}
	r.stores[t] = s
	return s
}

// Set creates or replaces e's component. It reports false for a nil or
// stale handle.
func (s *Store[T]) Set(e Entity, v T) bool {
	if !s.registry.Alive(e) {
		return false
	}
	s.cells.GetOrInsert(e.Index()).Store(v)
	return true
}

// Get returns a copy of e's component.
func (s *Store[T]) Get(e Entity) (T, bool) {
	if s.registry.Alive(e) {
		if v, err := s.cells.Value(e.Index()); err == nil {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Cell returns e's value cell for in-place updates that bypass the
// container lock. The cell stops belonging to e after the component is
// removed or the entity destroyed.
func (s *Store[T]) Cell(e Entity) (*sparse.Cell[T], bool) {
	if !s.registry.Alive(e) {
		return nil, false
	}
	c, err := s.cells.Get(e.Index())
	if err != nil {
		return nil, false
	}
	return c, true
}

// Has reports whether e currently holds a T component.
func (s *Store[T]) Has(e Entity) bool {
	return s.registry.Alive(e) && s.cells.Contains(e.Index())
}

// Remove deletes e's component, reporting whether one existed.
func (s *Store[T]) Remove(e Entity) bool {
	if !s.registry.Alive(e) {
		return false
	}
	return s.cells.Erase(e.Index())
}

// Len returns the number of entities holding a T component.
func (s *Store[T]) Len() int {
	return s.cells.Len()
}

// Each iterates entity/component pairs. Order is insertion order until a
// removal reorders the dense storage.
func (s *Store[T]) Each() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for i, cell := range s.cells.All() {
			e := newEntity(i, s.registry.generations[i])
			if !yield(e, cell.Load()) {
				return
			}
		}
	}
}

func (s *Store[T]) removeIndex(index uint32) bool {
	return s.cells.Erase(index)
}

func (s *Store[T]) clear() {
	s.cells.Clear()
}
