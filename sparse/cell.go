package sparse

import "sync/atomic"

// Cell holds a single value of type V and supports concurrent Store and
// Load without any external lock. A store is atomic with respect to
// other stores and loads on the same cell, so an existing entry's
// payload can be replaced while other goroutines read other entries.
//
// A Cell only protects its own value. The structural invariants of the
// Map that owns it (which keys exist, which dense slot a cell lives in)
// are guarded by the Map's lock, not by the cell.
type Cell[V any] struct {
	p atomic.Pointer[V]
}

// NewCell returns a cell holding v.
func NewCell[V any](v V) *Cell[V] {
	c := new(Cell[V])
	c.Store(v)
	return c
}

// Store replaces the held value.
func (c *Cell[V]) Store(v V) {
	c.p.Store(&v)
}

// Load returns the held value. A cell that has never been stored to
// yields the zero value of V.
func (c *Cell[V]) Load() V {
	if p := c.p.Load(); p != nil {
		return *p
	}
	var zero V
	return zero
}

// Swap stores v and returns the value held before.
func (c *Cell[V]) Swap(v V) V {
	if p := c.p.Swap(&v); p != nil {
		return *p
	}
	var zero V
	return zero
}
