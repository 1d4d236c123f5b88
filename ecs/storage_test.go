package ecs_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/plus3/ecsenv/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageAddGeneratesIds(t *testing.T) {
	storage := newTestStorage()

	a := ecs.NewEntity(Position{})
	b := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(a))
	require.NoError(t, storage.Add(b))

	assert.Equal(t, ecs.EntityId(1), a.Id())
	assert.Equal(t, ecs.EntityId(2), b.Id())
	assert.Same(t, storage, a.Storage())
	assert.Equal(t, 2, storage.Len())
}

func TestStorageGeneratedIdsSkipExplicitIds(t *testing.T) {
	storage := newTestStorage()

	require.NoError(t, storage.Add(ecs.NewEntityWithId(2, Position{})))

	a := ecs.NewEntity(Position{})
	b := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(a))
	require.NoError(t, storage.Add(b))

	assert.Equal(t, ecs.EntityId(1), a.Id())
	assert.Equal(t, ecs.EntityId(3), b.Id())
}

func TestStorageGeneratedIdsAreNotReused(t *testing.T) {
	storage := newTestStorage()

	a := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(a))
	storage.Remove(a)

	b := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(b))
	assert.NotEqual(t, a.Id(), b.Id())
}

func TestStorageAddDuplicateId(t *testing.T) {
	storage := newTestStorage()

	require.NoError(t, storage.Add(ecs.NewEntityWithId(5, Position{})))
	err := storage.Add(ecs.NewEntityWithId(5, Velocity{}))

	assert.True(t, errors.Is(err, ecs.ErrDuplicateId))
	assert.Equal(t, 1, storage.Len())
	assert.Empty(t, storage.Query(ecs.Of(velocityType)))
}

func TestStorageAddSameEntityTwice(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})

	require.NoError(t, storage.Add(e))
	assert.True(t, errors.Is(storage.Add(e), ecs.ErrDuplicateId))
	assert.Equal(t, 1, storage.Len())
}

func TestStorageAddOwnedEntity(t *testing.T) {
	first := newTestStorage()
	second := newTestStorage()
	e := ecs.NewEntity(Position{})

	require.NoError(t, first.Add(e))
	assert.True(t, errors.Is(second.Add(e), ecs.ErrEntityOwned))
	assert.True(t, errors.Is(second.Add(nil), ecs.ErrNilEntity))
	assert.Equal(t, 0, second.Len())
}

func TestStorageRemoveIsIdempotent(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(e))

	assert.True(t, storage.Remove(e))
	assert.False(t, storage.Remove(e))
	assert.False(t, storage.Remove(nil))
	assert.False(t, storage.Remove(ecs.NewEntity(Position{})))

	assert.Nil(t, e.Storage())
	assert.Equal(t, 0, storage.Len())
	assert.Empty(t, storage.Query(ecs.Of(positionType)))
}

func TestStorageRemovedEntityCanBeAddedAgain(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntityWithId(9, Position{})

	require.NoError(t, storage.Add(e))
	storage.Remove(e)
	require.NoError(t, storage.Add(e))

	assert.Equal(t, ecs.EntityId(9), e.Id())
	assert.Equal(t, []*ecs.Entity{e}, storage.Query(ecs.Of(positionType)))
}

func TestStorageFindById(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(e))

	found, ok := storage.FindById(e.Id())
	assert.True(t, ok)
	assert.Same(t, e, found)

	_, ok = storage.FindById(999)
	assert.False(t, ok)

	_, err := storage.ForcedFindById(999)
	assert.True(t, errors.Is(err, ecs.ErrNotFound))

	assert.True(t, storage.RemoveById(e.Id()))
	assert.False(t, storage.RemoveById(e.Id()))
}

func TestStorageQueryInsertionOrder(t *testing.T) {
	storage := newTestStorage()

	a := ecs.NewEntity(Position{}, Velocity{})
	b := ecs.NewEntity(Position{})
	c := ecs.NewEntity(Velocity{}, Position{}, Health{})
	require.NoError(t, storage.Add(a))
	require.NoError(t, storage.Add(b))
	require.NoError(t, storage.Add(c))

	assert.Equal(t, []*ecs.Entity{a, c}, storage.Query(ecs.Of(positionType, velocityType)))
	assert.Equal(t, []*ecs.Entity{a, b, c}, storage.Query(ecs.Of(positionType)))
	assert.Equal(t, []*ecs.Entity{a, b, c}, storage.Query(ecs.Of()))
	assert.Equal(t, []*ecs.Entity{b}, storage.Query(ecs.Of(positionType).Without(velocityType)))
}

func TestStorageQueryIsSnapshot(t *testing.T) {
	storage := newTestStorage()
	for range 5 {
		require.NoError(t, storage.Add(ecs.NewEntity(Position{})))
	}

	visited := 0
	for _, e := range storage.Query(ecs.Of(positionType)) {
		visited++
		storage.Remove(e)
		require.NoError(t, storage.Add(ecs.NewEntity(Position{})))
	}

	assert.Equal(t, 5, visited)
	assert.Equal(t, 5, storage.Len())
}

func TestStorageQueryReturnsFreshSlices(t *testing.T) {
	storage := newTestStorage()
	require.NoError(t, storage.Add(ecs.NewEntity(Position{})))

	first := storage.Query(ecs.Of(positionType))
	first[0] = nil

	second := storage.Query(ecs.Of(positionType))
	assert.NotNil(t, second[0])
}

func TestStorageQueryTracksComponentChanges(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(e))

	moving := ecs.Of(positionType, velocityType)
	assert.Empty(t, storage.Query(moving))

	e.AddOrReplace(Velocity{DX: 1})
	assert.Equal(t, []*ecs.Entity{e}, storage.Query(moving))

	ecs.Remove[Velocity](e)
	assert.Empty(t, storage.Query(moving))
}

func TestStorageQueryRareComponent(t *testing.T) {
	storage := newTestStorage()

	entities := make([]*ecs.Entity, 20)
	for i := range entities {
		entities[i] = ecs.NewEntity(Position{X: float32(i)})
		require.NoError(t, storage.Add(entities[i]))
	}

	// added out of insertion order; results must still follow it
	entities[15].AddOrReplace(Health{})
	entities[3].AddOrReplace(Health{})
	entities[9].AddOrReplace(Health{})

	result := storage.Query(ecs.Of(positionType, healthType))
	assert.Equal(t, []*ecs.Entity{entities[3], entities[9], entities[15]}, result)

	entities[9].AddOrReplace(Frozen{})
	result = storage.Query(ecs.Of(healthType).Without(frozenType))
	assert.Equal(t, []*ecs.Entity{entities[3], entities[15]}, result)
}

func TestStorageQueryUnknownComponent(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	storage := ecs.NewStorage(registry)
	require.NoError(t, storage.Add(ecs.NewEntity(Position{})))

	assert.Empty(t, storage.Query(ecs.Of(ecs.TypeOf[AI]())))
	assert.Len(t, storage.Query(ecs.Of(positionType).Without(ecs.TypeOf[AI]())), 1)

	// a type first seen after the query was planned
	e := ecs.NewEntity(AI{})
	require.NoError(t, storage.Add(e))
	assert.Equal(t, []*ecs.Entity{e}, storage.Query(ecs.Of(ecs.TypeOf[AI]())))
}

func TestStorageQueryContradictoryArchetype(t *testing.T) {
	storage := newTestStorage()
	require.NoError(t, storage.Add(ecs.NewEntity(Position{})))

	assert.Empty(t, storage.Query(ecs.Of(positionType).Without(positionType)))
}

func TestStorageContains(t *testing.T) {
	storage := newTestStorage()
	assert.False(t, storage.Contains(ecs.Of(positionType)))

	require.NoError(t, storage.Add(ecs.NewEntity(Position{})))
	assert.True(t, storage.Contains(ecs.Of(positionType)))
	assert.False(t, storage.Contains(ecs.Of(positionType, velocityType)))
}

func TestStorageSingleton(t *testing.T) {
	storage := newTestStorage()
	players := ecs.Of(ecs.TypeOf[PlayerController]())

	_, ok := storage.TrySingleton(players)
	assert.False(t, ok)
	_, err := storage.ForcedSingleton(players)
	assert.True(t, errors.Is(err, ecs.ErrAmbiguousOrMissing))

	player := ecs.NewEntity(PlayerController{}, Position{})
	require.NoError(t, storage.Add(player))

	found, ok := storage.TrySingleton(players)
	assert.True(t, ok)
	assert.Same(t, player, found)
	found, err = storage.ForcedSingleton(players)
	require.NoError(t, err)
	assert.Same(t, player, found)

	require.NoError(t, storage.Add(ecs.NewEntity(PlayerController{})))
	_, ok = storage.TrySingleton(players)
	assert.False(t, ok)
	_, err = storage.ForcedSingleton(players)
	assert.True(t, errors.Is(err, ecs.ErrAmbiguousOrMissing))
}

func TestStorageCompaction(t *testing.T) {
	storage := newTestStorage()

	entities := make([]*ecs.Entity, 200)
	for i := range entities {
		entities[i] = ecs.NewEntity(Position{X: float32(i)})
		require.NoError(t, storage.Add(entities[i]))
	}

	var kept []*ecs.Entity
	for i, e := range entities {
		if i%4 == 0 {
			kept = append(kept, e)
			continue
		}
		storage.Remove(e)
	}

	assert.Equal(t, len(kept), storage.Len())
	assert.Equal(t, kept, storage.All())
	assert.Equal(t, kept, storage.Query(ecs.Of(positionType)))

	for _, e := range kept {
		found, ok := storage.FindById(e.Id())
		require.True(t, ok)
		assert.Same(t, e, found)
	}

	storage.Compact()
	assert.Equal(t, kept, storage.All())
}

func TestStorageClear(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(e))
	require.NoError(t, storage.Add(ecs.NewEntity(Velocity{})))

	storage.Clear()

	assert.Equal(t, 0, storage.Len())
	assert.Empty(t, storage.All())
	assert.Empty(t, storage.Query(ecs.Of(positionType)))
	assert.Nil(t, e.Storage())

	// a cleared entity can move to another storage
	other := newTestStorage()
	require.NoError(t, other.Add(e))
}

func TestStorageDetachedEntityChangesAreNotIndexed(t *testing.T) {
	storage := newTestStorage()
	e := ecs.NewEntity(Position{})
	require.NoError(t, storage.Add(e))
	storage.Remove(e)

	e.AddOrReplace(Velocity{})
	assert.Empty(t, storage.Query(ecs.Of(velocityType)))

	require.NoError(t, storage.Add(e))
	assert.Equal(t, []*ecs.Entity{e}, storage.Query(ecs.Of(positionType, velocityType)))
}

func TestLargeNumberOfEntities(t *testing.T) {
	storage := newTestStorage()

	const numEntities = 10000

	for i := range numEntities {
		components := []any{Position{X: float32(i)}}
		if i%10 == 0 {
			components = append(components, Health{Current: i})
		}
		require.NoError(t, storage.Add(ecs.NewEntity(components...)))
	}

	healthy := storage.Query(ecs.Of(healthType))
	require.Len(t, healthy, numEntities/10)
	for i, e := range healthy {
		health, err := ecs.Get[Health](e)
		require.NoError(t, err)
		assert.Equal(t, i*10, health.Current)
	}
}

// TestStorageQueryAgreesWithMatches compares every query against a plain
// Matches filter over All while the store is populated, thinned out and
// reshaped. Component frequencies range from almost every entity to a few
// percent so both the posting-list seed and the full scan are used.
func TestStorageQueryAgreesWithMatches(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	storage := newTestStorage()

	pool := []struct {
		t      ecs.ComponentType
		chance float64
		value  func() any
	}{
		{positionType, 0.9, func() any { return Position{} }},
		{velocityType, 0.5, func() any { return Velocity{} }},
		{healthType, 0.3, func() any { return Health{} }},
		{nameType, 0.15, func() any { return Name{} }},
		{frozenType, 0.08, func() any { return Frozen{} }},
		{ecs.TypeOf[AI](), 0.03, func() any { return AI{} }},
	}

	randomComponents := func() []any {
		var components []any
		for _, c := range pool {
			if rng.Float64() < c.chance {
				components = append(components, c.value())
			}
		}
		return components
	}

	randomArchetype := func() ecs.Archetype {
		var present, absent []ecs.ComponentType
		for _, i := range rng.Perm(len(pool))[:1+rng.IntN(3)] {
			if rng.IntN(4) == 0 {
				absent = append(absent, pool[i].t)
			} else {
				present = append(present, pool[i].t)
			}
		}
		return ecs.Of(present...).Without(absent...)
	}

	ids := func(entities []*ecs.Entity) []ecs.EntityId {
		out := make([]ecs.EntityId, 0, len(entities))
		for _, e := range entities {
			out = append(out, e.Id())
		}
		return out
	}

	check := func(stage string) {
		all := storage.All()
		for range 200 {
			a := randomArchetype()
			var want []*ecs.Entity
			for _, e := range all {
				if a.Matches(e) {
					want = append(want, e)
				}
			}
			got := storage.Query(a)
			require.Equal(t, ids(want), ids(got), "%s: %s", stage, a)
			require.Equal(t, len(want) > 0, storage.Contains(a), "%s: %s", stage, a)
		}
	}

	for range 600 {
		require.NoError(t, storage.Add(ecs.NewEntity(randomComponents()...)))
	}
	check("populated")

	for _, e := range storage.All() {
		if rng.Float64() < 0.6 {
			storage.Remove(e)
		}
	}
	check("after removals")

	for range 100 {
		require.NoError(t, storage.Add(ecs.NewEntity(randomComponents()...)))
	}
	for _, e := range storage.All() {
		c := pool[rng.IntN(len(pool))]
		if e.Has(c.t) {
			e.Remove(c.t)
		} else {
			e.AddOrReplace(c.value())
		}
	}
	check("after reshaping")
}
