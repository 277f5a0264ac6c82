package ecs_test

import (
	"testing"

	"github.com/plus3/sparsekit/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Common test component types.
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current, Max int
}

func TestCreateEntities(t *testing.T) {
	r := ecs.NewRegistry()

	e1 := r.Create()
	e2 := r.Create()

	assert.False(t, e1.IsNil())
	assert.NotEqual(t, e1, e2)
	assert.True(t, r.Alive(e1))
	assert.True(t, r.Alive(e2))
	assert.Equal(t, 2, r.Len())
}

func TestNilEntityNeverAlive(t *testing.T) {
	r := ecs.NewRegistry()
	assert.False(t, r.Alive(ecs.Nil))

	r.Create()
	assert.False(t, r.Alive(ecs.Nil))
}

func TestDestroyEntity(t *testing.T) {
	r := ecs.NewRegistry()
	e := r.Create()

	assert.True(t, r.Destroy(e))
	assert.False(t, r.Alive(e))
	assert.Equal(t, 0, r.Len())

	// Destroying a dead handle is a no-op.
	assert.False(t, r.Destroy(e))
}

func TestSlotRecyclingBumpsGeneration(t *testing.T) {
	r := ecs.NewRegistry()
	old := r.Create()
	require.True(t, r.Destroy(old))

	// The slot is reused under a fresh generation, so the old handle
	// stays dead and does not alias the new entity.
	fresh := r.Create()
	assert.Equal(t, old.Index(), fresh.Index())
	assert.NotEqual(t, old.Generation(), fresh.Generation())
	assert.False(t, r.Alive(old))
	assert.True(t, r.Alive(fresh))
}

func TestDestroyErasesComponentsEverywhere(t *testing.T) {
	r := ecs.NewRegistry()
	positions := ecs.StoreFor[Position](r)
	healths := ecs.StoreFor[Health](r)

	e := r.Create()
	require.True(t, positions.Set(e, Position{1, 2}))
	require.True(t, healths.Set(e, Health{100, 100}))

	require.True(t, r.Destroy(e))

	assert.Equal(t, 0, positions.Len())
	assert.Equal(t, 0, healths.Len())
	_, ok := positions.Get(e)
	assert.False(t, ok)
}

func TestRegistryClear(t *testing.T) {
	r := ecs.NewRegistry()
	positions := ecs.StoreFor[Position](r)

	var entities []ecs.Entity
	for i := 0; i < 5; i++ {
		e := r.Create()
		positions.Set(e, Position{float32(i), 0})
		entities = append(entities, e)
	}

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, positions.Len())
	for _, e := range entities {
		assert.False(t, r.Alive(e))
	}

	// The registry remains usable after a clear.
	e := r.Create()
	assert.True(t, r.Alive(e))
	assert.True(t, positions.Set(e, Position{9, 9}))
}

func TestStoreForReturnsSameStore(t *testing.T) {
	r := ecs.NewRegistry()
	a := ecs.StoreFor[Position](r)
	b := ecs.StoreFor[Position](r)
	assert.Same(t, a, b)

	// Distinct component types get distinct stores.
	c := ecs.StoreFor[Velocity](r)
	assert.NotNil(t, c)
}
