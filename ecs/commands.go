package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Commands buffers structural changes that should only take effect once the
// whole pass is over. Structural changes made directly through the
// Environment apply immediately; Commands is for systems that want every
// other system of the frame to see the same world.
type Commands struct {
	spawns  []*Entity
	deletes []*Entity
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type addComponentCommand struct {
	entity     *Entity
	components []any
}

type removeComponentCommand struct {
	entity   *Entity
	compType ComponentType
}

// Defer queues a function to run after all other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity to be added.
func (c *Commands) Spawn(entity *Entity) {
	c.spawns = append(c.spawns, entity)
}

// Remove queues an entity removal.
func (c *Commands) Remove(entity *Entity) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues components to be added or replaced on an entity.
func (c *Commands) AddComponent(entity *Entity, components ...any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:     entity,
		components: components,
	})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity *Entity, compType ComponentType) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the storage and resets the buffer. Component
// changes queued for an entity removed in the same flush are dropped. Spawn
// failures are collected and returned together.
//
// Commands queued while flushing, including from deferred functions, are
// applied by the same call in a further round. A deferred function that
// always queues another one never returns.
func (c *Commands) Flush(storage *Storage) error {
	var errs []error
	for c.Len() > 0 {
		round := *c
		*c = Commands{}
		errs = append(errs, round.apply(storage)...)
	}
	return errors.Join(errs...)
}

func (c *Commands) apply(storage *Storage) []error {
	removed := make(map[*Entity]bool, len(c.deletes))

	for _, e := range c.deletes {
		storage.Remove(e)
		removed[e] = true
	}

	for _, cmd := range c.removes {
		if !removed[cmd.entity] {
			cmd.entity.Remove(cmd.compType)
		}
	}

	for _, cmd := range c.adds {
		if !removed[cmd.entity] {
			cmd.entity.AddOrReplace(cmd.components...)
		}
	}

	var errs []error
	for _, e := range c.spawns {
		if err := storage.Add(e); err != nil {
			errs = append(errs, eris.Wrap(err, "deferred spawn failed"))
		}
	}

	for _, fn := range c.defers {
		fn()
	}
	return errs
}
