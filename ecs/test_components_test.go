package ecs_test

import "github.com/plus3/ecsenv/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type Frozen struct{}

type AI struct {
	State int
}

// Custom primitive types for testing non-pointer components
type Score int32
type Tag string
type Temperature float64

type TestA string
type TestB string

var (
	positionType = ecs.TypeOf[Position]()
	velocityType = ecs.TypeOf[Velocity]()
	healthType   = ecs.TypeOf[Health]()
	nameType     = ecs.TypeOf[Name]()
	frozenType   = ecs.TypeOf[Frozen]()
)

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[Frozen](registry)
	ecs.RegisterComponent[AI](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Tag](registry)
	ecs.RegisterComponent[Temperature](registry)
	ecs.RegisterComponent[TestA](registry)
	ecs.RegisterComponent[TestB](registry)
	return registry
}

func newTestStorage() *ecs.Storage {
	return ecs.NewStorage(newTestRegistry())
}
