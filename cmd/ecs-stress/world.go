package main

import (
	"math/rand/v2"

	"github.com/plus3/ecsenv/ecs"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

// Lifetime makes an entity expire once Remaining drops to zero.
type Lifetime struct {
	Remaining float64
}

type Team struct {
	ID int
}

type Sleeping struct{}

// WorldStats is the singleton the counter system maintains.
type WorldStats struct {
	Frames         int64
	Spawned        int64
	Expired        int64
	PeakEntities   int
	LowestEntities int
}

var (
	positionType = ecs.TypeOf[Position]()
	velocityType = ecs.TypeOf[Velocity]()
	lifetimeType = ecs.TypeOf[Lifetime]()
	sleepingType = ecs.TypeOf[Sleeping]()

	movers = ecs.Of(positionType, velocityType).Without(sleepingType)
	mortal = ecs.Of(lifetimeType)
)

// registerComponents reserves bit ids in a fixed order so runs are comparable.
func registerComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[Team](registry)
	ecs.RegisterComponent[Sleeping](registry)
	ecs.RegisterComponent[WorldStats](registry)
}

// spawner builds entities with a random set of components.
type spawner struct {
	rng   *rand.Rand
	churn float64
}

func newSpawner(seed uint64, churn float64) *spawner {
	return &spawner{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		churn: churn,
	}
}

func (s *spawner) entity() *ecs.Entity {
	components := []any{Position{X: s.rng.Float64() * 1000, Y: s.rng.Float64() * 1000}}

	if s.rng.IntN(4) != 0 {
		components = append(components, Velocity{X: s.rng.NormFloat64(), Y: s.rng.NormFloat64()})
	}
	if s.rng.IntN(2) == 0 {
		maxHealth := 50 + s.rng.IntN(50)
		components = append(components, Health{Current: maxHealth, Max: maxHealth})
	}
	if s.rng.IntN(3) == 0 {
		components = append(components, Team{ID: s.rng.IntN(4)})
	}
	if s.rng.IntN(10) == 0 {
		components = append(components, Sleeping{})
	}
	if s.rng.Float64() < s.churn {
		components = append(components, Lifetime{Remaining: 0.1 + s.rng.Float64()})
	}

	return ecs.NewEntity(components...)
}

type MovementSystem struct{}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for _, e := range frame.Env.FetchAll(movers) {
		pos, err := ecs.Get[Position](e)
		if err != nil {
			return err
		}
		vel, err := ecs.Get[Velocity](e)
		if err != nil {
			return err
		}
		pos.X += vel.X * frame.DeltaTime
		pos.Y += vel.Y * frame.DeltaTime
	}
	return nil
}

// DecaySystem removes expired entities straight away, while it is still
// walking the snapshot it fetched.
type DecaySystem struct {
	stats *ecs.Singleton[WorldStats]
}

func (s *DecaySystem) Execute(frame *ecs.UpdateFrame) error {
	for _, e := range frame.Env.FetchAll(mortal) {
		lifetime, err := ecs.Get[Lifetime](e)
		if err != nil {
			// lost its Lifetime earlier in this pass
			continue
		}
		lifetime.Remaining -= frame.DeltaTime
		if lifetime.Remaining > 0 {
			continue
		}
		if frame.Env.Remove(e) {
			if stats := s.stats.Get(); stats != nil {
				stats.Expired++
			}
		}
	}
	return nil
}

// RespawnSystem tops the population back up to its target through the
// frame's command buffer.
type RespawnSystem struct {
	target  int
	spawner *spawner
	stats   *ecs.Singleton[WorldStats]
}

func (s *RespawnSystem) Order() ecs.Order {
	return ecs.OrderSimulationLate
}

func (s *RespawnSystem) Execute(frame *ecs.UpdateFrame) error {
	// the stats singleton is an entity too
	missing := s.target + 1 - frame.Env.EntityCount()
	for range missing {
		frame.Commands.Spawn(s.spawner.entity())
	}
	if stats := s.stats.Get(); stats != nil && missing > 0 {
		stats.Spawned += int64(missing)
	}
	return nil
}

type CounterSystem struct {
	stats *ecs.Singleton[WorldStats]
}

func (s *CounterSystem) Order() ecs.Order {
	return ecs.OrderCleanup
}

func (s *CounterSystem) Execute(frame *ecs.UpdateFrame) error {
	stats := s.stats.Get()
	if stats == nil {
		return ecs.ErrAmbiguousOrMissing
	}

	count := frame.Env.EntityCount()
	stats.Frames++
	stats.PeakEntities = max(stats.PeakEntities, count)
	if stats.LowestEntities == 0 || count < stats.LowestEntities {
		stats.LowestEntities = count
	}
	return nil
}

// newWorld builds a populated environment with the stress systems registered.
func newWorld(entities int, churn float64, seed uint64, opts ...ecs.Option) (*ecs.Environment, *ecs.Singleton[WorldStats], error) {
	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	env := ecs.NewEnvironment(append([]ecs.Option{ecs.WithRegistry(registry)}, opts...)...)

	stats, err := ecs.NewSingleton[WorldStats](env.Storage())
	if err != nil {
		return nil, nil, err
	}

	spawner := newSpawner(seed, churn)
	for range entities {
		if err := env.AddEntity(spawner.entity()); err != nil {
			return nil, nil, err
		}
	}

	env.AddSystems(
		&MovementSystem{},
		&DecaySystem{stats: stats},
		&RespawnSystem{target: entities, spawner: spawner, stats: stats},
		&CounterSystem{stats: stats},
	)
	return env, stats, nil
}
