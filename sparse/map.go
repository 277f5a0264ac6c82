// Package sparse provides a concurrency-safe sparse-set map: stable
// integer handles mapped to densely packed values, with O(1) lookup,
// insert and erase under a readers-writer spinlock, and per-entry atomic
// value cells so payload updates don't contend with reads of other
// entries. It is the storage primitive underneath the ecs package, which
// keeps one Map per component type.
package sparse

import (
	"errors"
	"iter"
	"math"
	"sync/atomic"

	"github.com/kamstrup/intmap"
)

// ErrKeyNotFound is returned by Get and Value when the key has no live
// entry. Absence is a hard error on these read-only paths because they
// have no way to self-heal; use GetOrInsert when an implicit insert is
// wanted, or branch on Contains.
var ErrKeyNotFound = errors.New("sparse: key not found")

// NPos is the position returned when an operation yields no dense slot:
// a refused duplicate insert, or a Find that matched nothing.
const NPos = -1

// Map is a sparse-set associative container safe for concurrent use.
//
// A sparse table maps each key to a slot in two parallel dense arrays,
// one holding keys and one holding value cells, kept in lockstep. Live
// entries always occupy slots [0, Len()) with no gaps; Erase fills the
// freed slot with the last live entry (swap-and-pop) and repairs the
// relocated key's sparse entry, so erase never shifts elements.
//
// Structural operations (Insert, Erase, Reserve, Clear) take the
// container lock exclusively; lookups and iteration take it shared, so
// readers never block each other. Replacing an existing entry's payload
// through its *Cell does not touch the container lock at all.
//
// Entries are ordered by insertion until an Erase swaps one; no other
// ordering holds. Positions and cells obtained from the map remain
// meaningful only until the next structural mutation.
type Map[K intmap.IntKey, V any] struct {
	lock RWSpinLock

	sparse    *intmap.Map[K, int]
	denseKeys []K
	denseVals []*Cell[V]

	// size and capacity are written only under the write lock but read
	// lock-free, so Len and Cap stay O(1) under contention.
	size     atomic.Int64
	capacity atomic.Int64
}

// New returns an empty map with room for capacity entries before the
// first growth.
func New[K intmap.IntKey, V any](capacity int) *Map[K, V] {
	m := &Map[K, V]{
		sparse: intmap.New[K, int](max(capacity, 16)),
	}
	if capacity > 0 {
		m.growLocked(capacity)
	}
	return m
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	return int(m.size.Load())
}

// Cap returns the number of entries the dense arrays can hold before the
// next growth. It never decreases over the lifetime of the map.
func (m *Map[K, V]) Cap() int {
	return int(m.capacity.Load())
}

// Empty reports whether the map holds no live entries.
func (m *Map[K, V]) Empty() bool {
	return m.size.Load() == 0
}

// MaxLen returns the theoretical upper bound on Len. Available memory
// limits the practical bound long before this value.
func (m *Map[K, V]) MaxLen() int {
	return math.MaxInt
}

// Contains reports whether key has a live entry.
func (m *Map[K, V]) Contains(key K) bool {
	release := m.lock.AcquireRead()
	defer release()
	_, ok := m.indexLocked(key)
	return ok
}

// indexLocked resolves key to its dense slot. Requires the lock held in
// either mode. A sparse entry is live only if it points inside
// [0, size) and the dense key there points back at the same key;
// anything else is a stale leftover from Erase or Clear.
func (m *Map[K, V]) indexLocked(key K) (int, bool) {
	i, ok := m.sparse.Get(key)
	if !ok || int64(i) >= m.size.Load() || m.denseKeys[i] != key {
		return NPos, false
	}
	return i, true
}

// Insert adds a new entry mapping key to val and returns its dense
// position. If key already has a live entry it is left untouched and
// Insert returns (NPos, false).
func (m *Map[K, V]) Insert(key K, val V) (int, bool) {
	return m.insert(key, func() V { return val })
}

// Emplace is Insert with deferred construction: ctor runs only if the
// key is actually inserted, never for a refused duplicate. ctor executes
// while the container lock is held exclusively, so it must not call back
// into the map.
func (m *Map[K, V]) Emplace(key K, ctor func() V) (int, bool) {
	return m.insert(key, ctor)
}

func (m *Map[K, V]) insert(key K, ctor func() V) (int, bool) {
	// Cheap shared-mode rejection for the duplicate case before paying
	// for exclusive access.
	if m.Contains(key) {
		return NPos, false
	}
	release := m.lock.AcquireWrite()
	defer release()
	return m.insertLocked(key, ctor)
}

// insertLocked requires the write lock. It re-validates absence so that
// two goroutines racing to insert the same key cannot both succeed.
func (m *Map[K, V]) insertLocked(key K, ctor func() V) (int, bool) {
	if _, ok := m.indexLocked(key); ok {
		return NPos, false
	}
	n := int(m.size.Load())
	if int64(n) >= m.capacity.Load() {
		m.growLocked(n + 1)
	}
	m.denseVals[n].Store(ctor())
	m.denseKeys[n] = key
	m.sparse.Put(key, n)
	m.size.Store(int64(n + 1))
	return n, true
}

// growLocked extends both dense arrays to at least n slots. Requires the
// write lock (or a map not yet shared).
func (m *Map[K, V]) growLocked(n int) {
	var zero K
	for len(m.denseVals) < n {
		m.denseVals = append(m.denseVals, new(Cell[V]))
		m.denseKeys = append(m.denseKeys, zero)
	}
	m.capacity.Store(int64(len(m.denseVals)))
}

// Reserve grows the dense arrays to hold at least n entries. It is a
// no-op when n does not exceed the current capacity. Growth invalidates
// positions handed out earlier.
func (m *Map[K, V]) Reserve(n int) {
	if int64(n) <= m.capacity.Load() {
		return
	}
	release := m.lock.AcquireWrite()
	defer release()
	m.growLocked(n)
}

// Get returns the value cell for key, or ErrKeyNotFound if key has no
// live entry. Get never inserts. Storing through the returned cell
// replaces the entry's payload without taking the container lock.
func (m *Map[K, V]) Get(key K) (*Cell[V], error) {
	release := m.lock.AcquireRead()
	defer release()
	i, ok := m.indexLocked(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return m.denseVals[i], nil
}

// Value returns a copy of the value stored for key, or ErrKeyNotFound.
// It is the read-only companion of Get.
func (m *Map[K, V]) Value(key K) (V, error) {
	cell, err := m.Get(key)
	if err != nil {
		var zero V
		return zero, err
	}
	return cell.Load(), nil
}

// GetOrInsert returns the value cell for key, inserting an entry holding
// the zero value of V first if key is absent.
func (m *Map[K, V]) GetOrInsert(key K) *Cell[V] {
	release := m.lock.AcquireRead()
	if i, ok := m.indexLocked(key); ok {
		c := m.denseVals[i]
		release()
		return c
	}
	release()

	wrelease := m.lock.AcquireWrite()
	defer wrelease()
	i, ok := m.insertLocked(key, func() V { var zero V; return zero })
	if !ok {
		// Another goroutine inserted the key between our locks.
		i, _ = m.indexLocked(key)
	}
	return m.denseVals[i]
}

// Erase removes the entry for key, reporting whether one existed. The
// freed dense slot is filled with the last live entry and that entry's
// sparse mapping is redirected to it, so erase is O(1) and the dense
// arrays stay gap-free. A cell or position previously obtained for the
// relocated last entry no longer refers to it afterwards.
func (m *Map[K, V]) Erase(key K) bool {
	release := m.lock.AcquireWrite()
	defer release()
	i, ok := m.indexLocked(key)
	if !ok {
		return false
	}
	last := int(m.size.Load()) - 1
	lastKey := m.denseKeys[last]

	// Swap-and-pop: the cell holding the erased value stays allocated at
	// the vacated last slot, ready for reuse by a later insert.
	m.denseKeys[i] = lastKey
	m.denseVals[i], m.denseVals[last] = m.denseVals[last], m.denseVals[i]
	m.sparse.Put(lastKey, i)
	m.sparse.Del(key)
	m.size.Store(int64(last))
	return true
}

// Clear removes every entry without releasing backing storage; Cap is
// unchanged. Sparse entries are left stale rather than zeroed — the
// presence check rejects them because their slots fall outside
// [0, Len()).
func (m *Map[K, V]) Clear() {
	release := m.lock.AcquireWrite()
	defer release()
	m.size.Store(0)
}

// Values iterates over the value cells of all live entries. The read
// lock is held for the span of the loop, so iteration observes a
// consistent structure; attempting a structural mutation from inside the
// loop deadlocks on the non-reentrant lock.
func (m *Map[K, V]) Values() iter.Seq[*Cell[V]] {
	return func(yield func(*Cell[V]) bool) {
		release := m.lock.AcquireRead()
		defer release()
		n := int(m.size.Load())
		for i := 0; i < n; i++ {
			if !yield(m.denseVals[i]) {
				return
			}
		}
	}
}

// Keys iterates over the keys of all live entries under the read lock.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		release := m.lock.AcquireRead()
		defer release()
		n := int(m.size.Load())
		for i := 0; i < n; i++ {
			if !yield(m.denseKeys[i]) {
				return
			}
		}
	}
}

// All iterates over key/cell pairs of all live entries under the read
// lock.
func (m *Map[K, V]) All() iter.Seq2[K, *Cell[V]] {
	return func(yield func(K, *Cell[V]) bool) {
		release := m.lock.AcquireRead()
		defer release()
		n := int(m.size.Load())
		for i := 0; i < n; i++ {
			if !yield(m.denseKeys[i], m.denseVals[i]) {
				return
			}
		}
	}
}

// Find scans the dense values for the first entry equal to val and
// returns its position, or NPos. This is the value-based search; key
// lookups should use Contains or Get, which are O(1).
func Find[K intmap.IntKey, V comparable](m *Map[K, V], val V) int {
	release := m.lock.AcquireRead()
	defer release()
	n := int(m.size.Load())
	for i := 0; i < n; i++ {
		if m.denseVals[i].Load() == val {
			return i
		}
	}
	return NPos
}
