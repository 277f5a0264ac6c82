// Package ecs is a small sparse-set entity-component layer on top of the
// sparse package: a Registry owns entity lifecycle, and one sparse.Map
// per component type holds the payloads. It is the consuming side of the
// container's contract — it supplies the integer handles as keys and
// erases an entity's components when the entity is destroyed.
package ecs

import "reflect"

// Registry allocates and destroys entities and tracks the per-type
// component stores. Destroyed slot indices are recycled through a
// freelist; every reuse bumps the slot's generation, so handles to the
// destroyed entity go stale instead of aliasing the new one.
//
// Registry methods themselves are not safe for concurrent use. The
// component stores it hands out are backed by sparse.Map and tolerate
// concurrent readers alongside a writer.
type Registry struct {
	generations []uint32
	free        []uint32
	alive       int
	stores      map[reflect.Type]componentStore
}

// componentStore is the type-erased surface the Registry uses to evict a
// destroyed entity's components from every store.
type componentStore interface {
	removeIndex(index uint32) bool
	clear()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[reflect.Type]componentStore),
	}
}

// Create allocates a new entity, reusing a destroyed slot when one is
// free.
func (r *Registry) Create() Entity {
	if n := len(r.free); n > 0 {
		index := r.free[n-1]
		r.free = r.free[:n-1]
		r.alive++
		return newEntity(index, r.generations[index])
	}
	index := uint32(len(r.generations))
	r.generations = append(r.generations, 1)
	r.alive++
	return newEntity(index, 1)
}

// Alive reports whether e refers to a live entity. Handles issued before
// the entity's slot was recycled fail the generation check.
func (r *Registry) Alive(e Entity) bool {
	if e.IsNil() {
		return false
	}
	i := e.Index()
	return int(i) < len(r.generations) && r.generations[i] == e.Generation()
}

// Destroy removes e and erases its components from every store,
// reporting whether e was alive. The slot index becomes available for
// reuse under a new generation.
func (r *Registry) Destroy(e Entity) bool {
	if !r.Alive(e) {
		return false
	}
	index := e.Index()
	for _, s := range r.stores {
		s.removeIndex(index)
	}
	r.generations[index]++
	r.free = append(r.free, index)
	r.alive--
	return true
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return r.alive
}

// Clear destroys every entity and logically clears every store. Store
// capacity is retained, matching the stores' clear semantics.
func (r *Registry) Clear() {
	for _, s := range r.stores {
		s.clear()
	}
	r.free = r.free[:0]
	for i := range r.generations {
		r.generations[i]++
		r.free = append(r.free, uint32(i))
	}
	r.alive = 0
}
