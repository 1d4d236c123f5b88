package ecs_test

import (
	"testing"

	"github.com/plus3/ecsenv/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawn(t *testing.T, storage *ecs.Storage, components ...any) *ecs.Entity {
	t.Helper()
	e := ecs.NewEntity(components...)
	require.NoError(t, storage.Add(e))
	return e
}

func TestView(t *testing.T) {

	storage := newTestStorage()
	e := spawn(t, storage, &Position{X: 1, Y: 2}, Temperature(32))

	view := ecs.NewView[struct {
		*Position
		*Temperature
	}](storage)

	item := view.Get(e)
	require.NotNil(t, item)
	assert.Equal(t, Temperature(32), *item.Temperature)
	assert.Equal(t, float32(1), item.Position.X)
	assert.Equal(t, float32(2), item.Position.Y)
}

func TestViewMissingComponent(t *testing.T) {

	storage := newTestStorage()
	// Entity only has Position, not Velocity
	e := spawn(t, storage, &Position{X: 5, Y: 10})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	assert.Nil(t, view.Get(e))

	var result struct {
		*Position
		*Velocity
	}
	assert.False(t, view.Fill(e, &result))
}

func TestViewComponentMutation(t *testing.T) {

	storage := newTestStorage()
	e := spawn(t, storage, &Position{X: 1, Y: 1}, &Velocity{DX: 0, DY: 0})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	item := view.Get(e)
	require.NotNil(t, item)

	// Mutate the components through the view
	item.Position.X = 100
	item.Velocity.DY = 10

	pos, _ := ecs.Get[Position](e)
	assert.Equal(t, float32(100), pos.X)
	vel, _ := ecs.Get[Velocity](e)
	assert.Equal(t, float32(10), vel.DY)
}

func TestViewArchetype(t *testing.T) {
	view := ecs.NewView[struct {
		*Position
		*Velocity
		Health *Health `ecs:"optional"`
		Frozen *Frozen `ecs:"exclude"`
	}](newTestStorage())

	expected := ecs.Of(positionType, velocityType).Without(frozenType)
	assert.True(t, view.Archetype().Equal(expected))
}

func TestViewIter(t *testing.T) {

	storage := newTestStorage()
	a := spawn(t, storage, Position{X: 1}, Velocity{DX: 1})
	spawn(t, storage, Position{X: 2})
	c := spawn(t, storage, Position{X: 3}, Velocity{DX: 3}, Health{})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	var seen []*ecs.Entity
	var xs []float32
	for e, item := range view.Iter() {
		seen = append(seen, e)
		xs = append(xs, item.Position.X)
	}

	assert.Equal(t, []*ecs.Entity{a, c}, seen)
	assert.Equal(t, []float32{1, 3}, xs)
}

func TestViewIterEarlyBreak(t *testing.T) {

	storage := newTestStorage()
	for i := range 10 {
		spawn(t, storage, Position{X: float32(i)})
	}

	view := ecs.NewView[struct{ *Position }](storage)

	count := 0
	for range view.Values() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestViewIterWithRemovedEntities(t *testing.T) {

	storage := newTestStorage()
	entities := make([]*ecs.Entity, 6)
	for i := range entities {
		entities[i] = spawn(t, storage, Position{X: float32(i)})
	}

	view := ecs.NewView[struct{ *Position }](storage)

	// removing while iterating only affects later iterations
	count := 0
	for e := range view.Iter() {
		count++
		storage.Remove(e)
	}
	assert.Equal(t, 6, count)

	count = 0
	for range view.Iter() {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestViewOptionalComponent(t *testing.T) {

	storage := newTestStorage()
	spawn(t, storage, Position{X: 1})
	spawn(t, storage, Position{X: 2}, Velocity{DX: 5})
	spawn(t, storage, Velocity{DX: 9})

	view := ecs.NewView[struct {
		*Position
		Velocity *Velocity `ecs:"optional"`
	}](storage)

	var withVelocity, withoutVelocity int
	for item := range view.Values() {
		if item.Velocity != nil {
			withVelocity++
			assert.Equal(t, float32(5), item.Velocity.DX)
		} else {
			withoutVelocity++
		}
	}

	assert.Equal(t, 1, withVelocity)
	assert.Equal(t, 1, withoutVelocity)
}

func TestViewAllOptional(t *testing.T) {

	storage := newTestStorage()
	spawn(t, storage, Position{})
	spawn(t, storage, Name{Value: "nothing else"})

	// Both components optional - matches all entities
	view := ecs.NewView[struct {
		Velocity *Velocity `ecs:"optional"`
		Health   *Health   `ecs:"optional"`
	}](storage)

	count := 0
	for range view.Values() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewExcludedComponent(t *testing.T) {

	storage := newTestStorage()
	active := spawn(t, storage, Position{X: 1})
	frozen := spawn(t, storage, Position{X: 2}, Frozen{})

	view := ecs.NewView[struct {
		*Position
		Frozen *Frozen `ecs:"exclude"`
	}](storage)

	var seen []*ecs.Entity
	for e, item := range view.Iter() {
		seen = append(seen, e)
		assert.Nil(t, item.Frozen)
	}
	assert.Equal(t, []*ecs.Entity{active}, seen)
	assert.Nil(t, view.Get(frozen))
}

func TestViewInvalidTag(t *testing.T) {
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Position *Position `ecs:"maybe"`
		}](newTestStorage())
	})
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Position Position
		}](newTestStorage())
	})
	assert.Panics(t, func() {
		ecs.NewView[*Position](newTestStorage())
	})
}

func TestViewSpawn(t *testing.T) {

	storage := newTestStorage()

	type mover struct {
		*Position
		*Velocity
		Health *Health `ecs:"optional"`
		Frozen *Frozen `ecs:"exclude"`
	}
	view := ecs.NewView[mover](storage)

	pos := &Position{X: 10, Y: 20}
	e, err := view.Spawn(mover{
		Position: pos,
		Velocity: &Velocity{DX: 1, DY: 2},
		Frozen:   &Frozen{},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, e.ComponentCount())
	assert.False(t, ecs.Has[Frozen](e))
	assert.False(t, ecs.Has[Health](e))

	// the pointed-to component is attached as-is
	got, _ := ecs.Get[Position](e)
	assert.Same(t, pos, got)

	item := view.Get(e)
	require.NotNil(t, item)
	assert.Nil(t, item.Health)

	_, err = view.Spawn(mover{
		Position: &Position{},
		Velocity: &Velocity{},
		Health:   &Health{Current: 5},
	})
	require.NoError(t, err)

	count := 0
	for range view.Values() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewSpawnWithPrimitives(t *testing.T) {

	storage := newTestStorage()
	view := ecs.NewView[struct {
		*Score
		*Tag
	}](storage)

	score := Score(7)
	tag := Tag("boss")
	e, err := view.Spawn(struct {
		*Score
		*Tag
	}{&score, &tag})
	require.NoError(t, err)

	item := view.Get(e)
	require.NotNil(t, item)
	assert.Equal(t, Score(7), *item.Score)
	assert.Equal(t, Tag("boss"), *item.Tag)
}

func TestViewSpawnNilRequiredComponentPanics(t *testing.T) {

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](newTestStorage())

	assert.Panics(t, func() {
		view.Spawn(struct {
			*Position
			*Velocity
		}{Position: &Position{}})
	})
}
