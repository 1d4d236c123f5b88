package ecs_test

import (
	"fmt"

	"github.com/plus3/ecsenv/ecs"
)

type CleanupSystem struct{}

func (s *CleanupSystem) Order() ecs.Order { return ecs.OrderCleanup }

func (s *CleanupSystem) Execute(frame *ecs.UpdateFrame) error {
	deadCount := 0
	for _, e := range frame.Env.FetchAll(ecs.Of(ecs.TypeOf[Health]())) {
		health, _ := ecs.Get[Health](e)
		if health.Current <= 0 {
			frame.Commands.Remove(e)
			deadCount++
		}
	}
	if deadCount > 0 {
		fmt.Printf("Queued %d dead entities for removal\n", deadCount)
	}
	return nil
}

// ExampleCommands demonstrates using command buffers to defer entity
// mutations. Changes made directly through the Environment apply at once;
// changes queued on frame.Commands are applied after every system of the
// frame has run.
func ExampleCommands() {
	env := ecs.NewEnvironment()

	env.Spawn(Position{X: 0, Y: 0}, Health{Current: 0, Max: 100})
	env.Spawn(Position{X: 10, Y: 10}, Health{Current: 50, Max: 100})
	env.Spawn(Position{X: 20, Y: 20}, Health{Current: 100, Max: 100})

	env.AddSystem(&CleanupSystem{})

	env.Update(1.0)

	fmt.Printf("Remaining entities: %d\n", env.EntityCount())

	// Output:
	// Queued 1 dead entities for removal
	// Remaining entities: 2
}

// ExampleCommands_Defer runs code once all other queued commands are applied.
func ExampleCommands_Defer() {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	var commands ecs.Commands

	commands.Defer(func() {
		fmt.Printf("Entities after flush: %d\n", storage.Len())
	})
	commands.Spawn(ecs.NewEntity(Position{}))
	commands.Spawn(ecs.NewEntity(Position{}))

	fmt.Printf("Queued commands: %d\n", commands.Len())
	commands.Flush(storage)

	// Output:
	// Queued commands: 3
	// Entities after flush: 2
}
