package ecs

import (
	"context"
	"log"
	"reflect"
	"time"
)

// Environment composes the entity store and the scheduler and is the single
// entry point for systems and the owning game loop.
//
// An Environment is driven by one goroutine: calling its mutating methods
// from another goroutine while Update runs is not supported.
type Environment struct {
	storage   *Storage
	scheduler *Scheduler
	logger    *log.Logger
}

// NewEnvironment creates an empty environment.
func NewEnvironment(opts ...Option) *Environment {
	cfg := newConfig(opts)
	env := &Environment{
		storage: NewStorage(cfg.registry),
		logger:  cfg.logger,
	}
	env.scheduler = newScheduler(env, cfg)
	return env
}

// Storage returns the underlying entity store.
func (env *Environment) Storage() *Storage {
	return env.storage
}

// Scheduler returns the underlying scheduler.
func (env *Environment) Scheduler() *Scheduler {
	return env.scheduler
}

// Logger returns the environment's logger.
func (env *Environment) Logger() *log.Logger {
	return env.logger
}

// AddEntity registers an entity. See Storage.Add.
func (env *Environment) AddEntity(e *Entity) error {
	return env.storage.Add(e)
}

// AddEntities registers entities in order and stops at the first failure.
func (env *Environment) AddEntities(entities ...*Entity) error {
	for _, e := range entities {
		if err := env.storage.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Spawn creates and registers an entity with a generated id.
func (env *Environment) Spawn(components ...any) (*Entity, error) {
	return env.SpawnWithId(0, components...)
}

// SpawnWithId creates and registers an entity with an explicit id.
func (env *Environment) SpawnWithId(id EntityId, components ...any) (*Entity, error) {
	e := NewEntityWithId(id, components...)
	if err := env.storage.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Remove unregisters an entity. Removing an absent entity is a no-op.
func (env *Environment) Remove(e *Entity) bool {
	return env.storage.Remove(e)
}

// RemoveAll unregisters every given entity and returns how many were removed.
func (env *Environment) RemoveAll(entities []*Entity) int {
	removed := 0
	for _, e := range entities {
		if env.storage.Remove(e) {
			removed++
		}
	}
	return removed
}

// RemoveById unregisters the entity with the given id, if present.
func (env *Environment) RemoveById(id EntityId) bool {
	return env.storage.RemoveById(id)
}

// ClearEntities removes every entity.
func (env *Environment) ClearEntities() {
	env.storage.Clear()
}

// EntityCount returns the number of registered entities.
func (env *Environment) EntityCount() int {
	return env.storage.Len()
}

// AllEntities returns every registered entity in insertion order.
func (env *Environment) AllEntities() []*Entity {
	return env.storage.All()
}

// FetchAll returns a snapshot of the entities matching a.
func (env *Environment) FetchAll(a Archetype) []*Entity {
	return env.storage.Query(a)
}

// Fetch returns the only entity matching a; false if zero or several match.
func (env *Environment) Fetch(a Archetype) (*Entity, bool) {
	return env.storage.TrySingleton(a)
}

// ForcedFetch returns the only entity matching a or ErrAmbiguousOrMissing.
func (env *Environment) ForcedFetch(a Archetype) (*Entity, error) {
	return env.storage.ForcedSingleton(a)
}

// FetchById returns the entity with the given id.
func (env *Environment) FetchById(id EntityId) (*Entity, bool) {
	return env.storage.FindById(id)
}

// ForcedFetchById returns the entity with the given id or ErrNotFound.
func (env *Environment) ForcedFetchById(id EntityId) (*Entity, error) {
	return env.storage.ForcedFindById(id)
}

// Contains reports whether any entity matches a.
func (env *Environment) Contains(a Archetype) bool {
	return env.storage.Contains(a)
}

// AddSystem registers a system, replacing one of the same concrete type.
func (env *Environment) AddSystem(system System) {
	env.scheduler.Add(system)
}

// AddSystemAt registers a system in an explicit order category.
func (env *Environment) AddSystemAt(order Order, system System) {
	env.scheduler.AddAt(order, system)
}

// AddSystems registers systems in the given order.
func (env *Environment) AddSystems(systems ...System) {
	for _, system := range systems {
		env.scheduler.Add(system)
	}
}

// ReplaceSystem swaps in a system keeping the slot of the one it replaces.
func (env *Environment) ReplaceSystem(system System) {
	env.scheduler.Replace(system)
}

// RegisterSystem adds a system, failing with ErrSystemPresent if one of the
// same concrete type is registered.
func (env *Environment) RegisterSystem(system System) error {
	return env.scheduler.Register(system)
}

// RemoveSystem unregisters the systems of the given concrete type.
func (env *Environment) RemoveSystem(systemType reflect.Type) bool {
	return env.scheduler.Remove(systemType)
}

// ToggleSystem removes the system's type if registered, otherwise adds it.
func (env *Environment) ToggleSystem(system System) {
	env.scheduler.Toggle(system)
}

// IsSystemPresent reports whether a system of the given type is registered.
func (env *Environment) IsSystemPresent(systemType reflect.Type) bool {
	return env.scheduler.IsPresent(systemType)
}

// EnableSystem re-enables a disabled system.
func (env *Environment) EnableSystem(systemType reflect.Type) bool {
	return env.scheduler.Enable(systemType)
}

// DisableSystem keeps a system registered but skips it during updates.
func (env *Environment) DisableSystem(systemType reflect.Type) bool {
	return env.scheduler.Disable(systemType)
}

// Systems returns the registered systems in execution order.
func (env *Environment) Systems() []System {
	return env.scheduler.Systems()
}

// Update runs one scheduler pass.
func (env *Environment) Update(dt float64) error {
	return env.scheduler.Once(dt)
}

// UpdateTimes runs count passes with the same delta time, stopping at the
// first failed pass.
func (env *Environment) UpdateTimes(count int, dt float64) error {
	for i := 0; i < count; i++ {
		if err := env.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

// Run drives Update on a ticker until the context is cancelled.
func (env *Environment) Run(ctx context.Context, interval time.Duration) error {
	return env.scheduler.Run(ctx, interval)
}

// RemoveSystem unregisters the systems of type T from env.
func RemoveSystem[T System](env *Environment) bool {
	return env.RemoveSystem(TypeOfSystem[T]())
}

// IsSystemPresent reports whether a system of type T is registered in env.
func IsSystemPresent[T System](env *Environment) bool {
	return env.IsSystemPresent(TypeOfSystem[T]())
}
