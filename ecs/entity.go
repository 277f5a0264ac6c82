package ecs

// Entity is a stable handle to an entity: the slot index in the lower 32
// bits and a generation counter in the upper 32 bits. Generations start
// at 1, so the zero Entity is never a live handle.
type Entity uint64

// Nil is the invalid entity handle.
const Nil Entity = 0

func newEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the handle.
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation extracts the generation the handle was issued at.
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

// IsNil reports whether e is the invalid handle.
func (e Entity) IsNil() bool {
	return e == Nil
}
