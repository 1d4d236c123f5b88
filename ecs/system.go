package ecs

import (
	"reflect"
	"strconv"
)

// System is a unit of per-frame behavior. Systems fetch the entities they
// work on through frame.Env each time they execute and may keep private
// state, such as counters, between frames.
type System interface {
	Execute(frame *UpdateFrame) error
}

// OrderedSystem is a System that declares the order category it runs in.
// Systems that do not implement it run in OrderSimulation.
type OrderedSystem interface {
	System
	Order() Order
}

// Order is the primary sort key of the scheduler. Systems with the same order
// run in registration order.
type Order int

const (
	OrderPreparation Order = iota
	OrderSimulationBegin
	OrderSimulation
	OrderSimulationLate
	OrderPresentationWorld
	OrderPresentationOverlay
	OrderPresentationUI
	OrderCleanup
)

var orderNames = [...]string{
	OrderPreparation:         "Preparation",
	OrderSimulationBegin:     "SimulationBegin",
	OrderSimulation:          "Simulation",
	OrderSimulationLate:      "SimulationLate",
	OrderPresentationWorld:   "PresentationWorld",
	OrderPresentationOverlay: "PresentationOverlay",
	OrderPresentationUI:      "PresentationUI",
	OrderCleanup:             "Cleanup",
}

func (o Order) String() string {
	if o >= 0 && int(o) < len(orderNames) {
		return orderNames[o]
	}
	return "Order(" + strconv.Itoa(int(o)) + ")"
}

func declaredOrder(system System) Order {
	if ordered, ok := system.(OrderedSystem); ok {
		return ordered.Order()
	}
	return OrderSimulation
}

// SystemTypeOf returns the concrete type the scheduler keys system by.
func SystemTypeOf(system System) reflect.Type {
	return reflect.TypeOf(system)
}

// TypeOfSystem returns the scheduler key for systems of type T, usually a
// pointer type such as *MovementSystem.
func TypeOfSystem[T System]() reflect.Type {
	return reflect.TypeFor[T]()
}

func systemName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
